package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// UniformGray returns a w×h grayscale image filled with level.
func UniformGray(w, h int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// Checkerboard returns a w×h grayscale image alternating a and b per pixel.
// With an even pixel count its mean is (a+b)/2 and its standard deviation |a-b|/2.
func Checkerboard(w, h int, a, b uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			level := a
			if (x+y)%2 == 1 {
				level = b
			}
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

// UniformRGBA returns a w×h opaque image filled with c.
func UniformRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// PNG encodes img, failing the test on error.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "failed to encode png")
	return buf.Bytes()
}
