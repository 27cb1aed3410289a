package provider

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// CLIP normalization constants, matching the values the model was
// trained with.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// DefaultInputSize is the input resolution of the ViT-L/14 vision tower.
const DefaultInputSize = 224

// Preprocessor converts a decoded image into the tensor layout the CLIP
// vision model expects: shortest side resized to the input size with
// Catmull-Rom resampling, center cropped, scaled to [0, 1], mean/std
// normalized, NCHW float32.
type Preprocessor struct {
	size int
}

// NewPreprocessor creates a Preprocessor with the given input size.
// Sizes below 1 fall back to DefaultInputSize.
func NewPreprocessor(size int) *Preprocessor {
	if size < 1 {
		size = DefaultInputSize
	}
	return &Preprocessor{size: size}
}

// Size returns the model input resolution.
func (p *Preprocessor) Size() int { return p.size }

// Pixels returns the normalized pixel tensor for img, laid out as one
// NCHW sample of shape [1, 3, size, size].
func (p *Preprocessor) Pixels(img image.Image) []float32 {
	cropped := p.resizeAndCrop(img)

	plane := p.size * p.size
	out := make([]float32, 3*plane)
	for y := 0; y < p.size; y++ {
		for x := 0; x < p.size; x++ {
			// Non-premultiplied RGB; alpha is dropped the way PIL's
			// convert("RGB") drops it.
			c := color.NRGBAModel.Convert(cropped.At(x, y)).(color.NRGBA)
			idx := y*p.size + x
			out[idx] = (float32(c.R)/255 - clipMean[0]) / clipStd[0]
			out[plane+idx] = (float32(c.G)/255 - clipMean[1]) / clipStd[1]
			out[2*plane+idx] = (float32(c.B)/255 - clipMean[2]) / clipStd[2]
		}
	}
	return out
}

// resizeAndCrop scales the shortest side to the input size and center
// crops a square.
func (p *Preprocessor) resizeAndCrop(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	newW, newH := p.size, p.size
	switch {
	case w <= 0 || h <= 0:
		// Degenerate input; scale into a blank square.
	case w < h:
		newH = (h*p.size + w/2) / w
	case h < w:
		newW = (w*p.size + h/2) / h
	}

	resized := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)

	offX := (newW - p.size) / 2
	offY := (newH - p.size) / 2
	cropped := image.NewRGBA(image.Rect(0, 0, p.size, p.size))
	draw.Draw(cropped, cropped.Bounds(), resized, image.Pt(offX, offY), draw.Src)
	return cropped
}
