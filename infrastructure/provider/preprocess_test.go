package provider

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPixelsShape(t *testing.T) {
	pre := NewPreprocessor(DefaultInputSize)
	out := pre.Pixels(uniformImage(640, 480, color.NRGBA{R: 128, G: 128, B: 128, A: 255}))
	require.Len(t, out, 3*224*224)
}

func TestPixelsNormalization(t *testing.T) {
	pre := NewPreprocessor(8)
	out := pre.Pixels(uniformImage(32, 32, color.NRGBA{R: 255, G: 0, B: 128, A: 255}))

	plane := 8 * 8
	wantR := (float32(1.0) - clipMean[0]) / clipStd[0]
	wantG := (float32(0.0) - clipMean[1]) / clipStd[1]
	wantB := (float32(128)/255 - clipMean[2]) / clipStd[2]

	require.InDelta(t, wantR, out[0], 1e-2)
	require.InDelta(t, wantG, out[plane], 1e-2)
	require.InDelta(t, wantB, out[2*plane], 1e-2)

	// Uniform input stays uniform through resize and crop.
	require.InDelta(t, out[0], out[plane-1], 1e-2)
}

func TestPixelsNonSquareCrops(t *testing.T) {
	// Left half black, right half white; a center crop of the wide image
	// should see both halves.
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(0)
			if x >= 50 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	pre := NewPreprocessor(16)
	out := pre.Pixels(img)

	// Row 0 of the red channel spans the seam: dark on the left edge,
	// bright on the right edge.
	require.Less(t, out[0], float32(0))
	require.Greater(t, out[15], float32(0))
}

func TestPixelsTallImage(t *testing.T) {
	pre := NewPreprocessor(16)
	out := pre.Pixels(uniformImage(30, 90, color.NRGBA{R: 200, G: 200, B: 200, A: 255}))
	require.Len(t, out, 3*16*16)
}

func TestPreprocessorSizeFallback(t *testing.T) {
	require.Equal(t, DefaultInputSize, NewPreprocessor(0).Size())
	require.Equal(t, 336, NewPreprocessor(336).Size())
}
