package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/disintegration/imaging"
)

// Gradient builds a w x h test image with a horizontal colour ramp.
func Gradient(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{A: 255})
	for x := 0; x < w; x++ {
		shade := uint8(x * 255 / max(w-1, 1))
		for y := 0; y < h; y++ {
			img.SetNRGBA(x, y, color.NRGBA{R: shade, G: 128, B: 255 - shade, A: 255})
		}
	}
	return img
}

// PNG returns an encoded w x h PNG fixture.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	return encode(t, Gradient(w, h), imaging.PNG)
}

// JPEG returns an encoded w x h JPEG fixture.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	return encode(t, Gradient(w, h), imaging.JPEG)
}

// GIF returns an encoded w x h GIF fixture.
func GIF(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, Gradient(w, h), nil); err != nil {
		t.Fatalf("encode gif fixture: %v", err)
	}
	return buf.Bytes()
}

func encode(t testing.TB, img image.Image, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("encode %s fixture: %v", format, err)
	}
	return buf.Bytes()
}
