package provider

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Tensor names of a CLIP vision tower exported to ONNX.
const (
	visionInputName  = "pixel_values"
	visionOutputName = "image_embeds"
)

// ortRuntime holds the process-wide ONNX Runtime environment and
// session. ORT only allows one active environment per process, so all
// OnnxEncoder instances must share it. The mutex serializes both
// initialization and inference (ORT is not thread-safe).
var ortRuntime struct {
	session     *ort.DynamicAdvancedSession
	mu          sync.Mutex
	initialized bool
}

// OnnxEncoder runs a CLIP vision model locally through ONNX Runtime.
type OnnxEncoder struct {
	modelPath string
	device    string
	pre       *Preprocessor
	dim       int
}

// NewOnnxEncoder creates an OnnxEncoder for the model file at modelPath.
// device selects the execution provider: cpu (default), cuda or coreml.
func NewOnnxEncoder(modelPath, device string) *OnnxEncoder {
	return &OnnxEncoder{
		modelPath: modelPath,
		device:    device,
		pre:       NewPreprocessor(DefaultInputSize),
	}
}

func (e *OnnxEncoder) initialize() error {
	ortRuntime.mu.Lock()
	defer ortRuntime.mu.Unlock()

	if ortRuntime.initialized {
		return nil
	}

	if lib := resolveORTLibrary(); lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	switch e.device {
	case "", "cpu":
	case "cuda":
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("create cuda provider options: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return fmt.Errorf("enable cuda execution provider: %w", err)
		}
	case "coreml":
		if err := opts.AppendExecutionProviderCoreML(0); err != nil {
			return fmt.Errorf("enable coreml execution provider: %w", err)
		}
	default:
		return fmt.Errorf("unknown encoder device %q", e.device)
	}

	session, err := ort.NewDynamicAdvancedSession(
		e.modelPath,
		[]string{visionInputName},
		[]string{visionOutputName},
		opts,
	)
	if err != nil {
		return fmt.Errorf("load vision model %s: %w", e.modelPath, err)
	}

	ortRuntime.session = session
	ortRuntime.initialized = true
	return nil
}

// Encode runs one image through the vision model.
func (e *OnnxEncoder) Encode(ctx context.Context, img image.Image) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.initialize(); err != nil {
		return nil, err
	}

	pixels := e.pre.Pixels(img)
	size := int64(e.pre.Size())

	// Hold the runtime mutex for inference. ORT is not thread-safe.
	ortRuntime.mu.Lock()
	defer ortRuntime.mu.Unlock()

	input, err := ort.NewTensor(ort.NewShape(1, 3, size, size), pixels)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := ortRuntime.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run vision model: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("vision model output is %T, expected float32 tensor", outputs[0])
	}
	defer out.Destroy()

	data := out.GetData()
	shape := out.GetShape()
	dim := int(shape[len(shape)-1])
	if dim <= 0 || len(data) < dim {
		return nil, fmt.Errorf("vision model output has unexpected shape %v", shape)
	}

	vec := make([]float64, dim)
	for i := 0; i < dim; i++ {
		vec[i] = float64(data[i])
	}
	e.dim = dim
	return vec, nil
}

// Dimension returns the embedding width observed on the first encode.
func (e *OnnxEncoder) Dimension() int { return e.dim }

// Close is a no-op. The ONNX Runtime environment is process-global and
// shared across all OnnxEncoder instances; it is cleaned up when the
// process exits.
func (e *OnnxEncoder) Close() error { return nil }

var _ Encoder = (*OnnxEncoder)(nil)

// resolveORTLibrary finds the ONNX Runtime shared library. It checks
// ORT_LIB_DIR, then lib/ alongside the executable, then lib/ relative
// to the working directory. Returns empty string to let the binding use
// its platform default.
func resolveORTLibrary() string {
	name := ortLibraryName()

	candidates := []string{}
	if dir := os.Getenv("ORT_LIB_DIR"); dir != "" {
		candidates = append(candidates, dir)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "lib"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "lib"))
	}

	for _, dir := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func ortLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
