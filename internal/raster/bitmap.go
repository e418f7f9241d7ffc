package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"photoreport/internal/services"

	// Register decoders beyond the imaging defaults.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports bytes that no registered decoder understands.
var ErrDecode = fmt.Errorf("%w: image decode failed", services.ErrValidation)

// Bitmap is a decoded, orientation-corrected image.
type Bitmap struct {
	img    image.Image
	format string
}

// Decode parses data into a Bitmap, applying EXIF orientation.
func Decode(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &Bitmap{img: img, format: format}, nil
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.img.Bounds().Dx() }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.img.Bounds().Dy() }

// Format returns the decoder name ("jpeg", "png", ...).
func (b *Bitmap) Format() string { return b.format }

// Resize returns a new bitmap scaled to exactly w x h with a single Lanczos
// pass over the full source.
func (b *Bitmap) Resize(w, h int) *Bitmap {
	if w == b.Width() && h == b.Height() {
		return b
	}
	return &Bitmap{img: imaging.Resize(b.img, w, h, imaging.Lanczos), format: b.format}
}

// EncodeJPEG encodes the bitmap as JPEG. quality is in [0,1]. Transparent
// regions are flattened onto white.
func (b *Bitmap) EncodeJPEG(quality float64) ([]byte, error) {
	flat := imaging.New(b.Width(), b.Height(), color.White)
	flat = imaging.Overlay(flat, b.img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales (w, h) so the longer side does not exceed maxSide, preserving
// aspect ratio. Sizes already within bounds are returned unchanged; scaled
// sides are rounded and never collapse below one pixel.
func Fit(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || w <= 0 || h <= 0 {
		return w, h
	}
	ratio := float64(max(w, h)) / float64(maxSide)
	if ratio <= 1 {
		return w, h
	}
	nw := int(math.Round(float64(w) / ratio))
	nh := int(math.Round(float64(h) / ratio))
	return max(nw, 1), max(nh, 1)
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	switch {
	case v < 1:
		return 1
	case v > 100:
		return 100
	default:
		return v
	}
}
