// Package provider implements image embedding encoders. A local ONNX
// vision model and a remote HTTP inference endpoint share one contract.
package provider

import (
	"context"
	"image"
)

// Encoder turns a decoded artwork image into an embedding vector.
type Encoder interface {
	// Encode computes the embedding for one image. The vector is raw
	// model output; callers normalize it themselves.
	Encode(ctx context.Context, img image.Image) ([]float64, error)

	// Dimension returns the embedding width, or 0 before the first
	// successful Encode.
	Dimension() int

	// Close releases encoder resources.
	Close() error
}
