package raster

import (
	"context"
	"strings"

	"photoreport/internal/imageuri"
)

// Options bounds the preview and print renditions.
type Options struct {
	PreviewMaxSide int
	PreviewQuality float64
	PrintMaxSide   int
	PrintQuality   float64
}

// DefaultOptions returns the stock rendition bounds.
func DefaultOptions() Options {
	return Options{
		PreviewMaxSide: 1800,
		PreviewQuality: 0.85,
		PrintMaxSide:   1800,
		PrintQuality:   0.80,
	}
}

// Variants holds the two embedded renditions of one photo.
type Variants struct {
	PreviewURI string
	PrintURI   string
	Width      int
	Height     int
}

// Transformer derives Variants from decoded photo payloads.
type Transformer struct {
	opts Options
}

// NewTransformer constructs a Transformer. Zero fields fall back to defaults.
func NewTransformer(opts Options) *Transformer {
	def := DefaultOptions()
	if opts.PreviewMaxSide <= 0 {
		opts.PreviewMaxSide = def.PreviewMaxSide
	}
	if opts.PreviewQuality <= 0 {
		opts.PreviewQuality = def.PreviewQuality
	}
	if opts.PrintMaxSide <= 0 {
		opts.PrintMaxSide = def.PrintMaxSide
	}
	if opts.PrintQuality <= 0 {
		opts.PrintQuality = def.PrintQuality
	}
	return &Transformer{opts: opts}
}

// Options reports the effective rendition bounds.
func (t *Transformer) Options() Options { return t.opts }

// Variants decodes data and produces the preview and print renditions.
// When the preview needs no downscale the original bytes are embedded
// unchanged under mediaType; the print rendition is always re-encoded JPEG.
func (t *Transformer) Variants(ctx context.Context, data []byte, mediaType string) (Variants, error) {
	if err := ctx.Err(); err != nil {
		return Variants{}, err
	}
	bmp, err := Decode(data)
	if err != nil {
		return Variants{}, err
	}

	preview, err := t.preview(bmp, data, mediaType)
	if err != nil {
		return Variants{}, err
	}

	pw, ph := Fit(bmp.Width(), bmp.Height(), t.opts.PrintMaxSide)
	printable := bmp.Resize(pw, ph)
	printJPEG, err := printable.EncodeJPEG(t.opts.PrintQuality)
	if err != nil {
		return Variants{}, err
	}

	return Variants{
		PreviewURI: preview,
		PrintURI:   imageuri.Encode("image/jpeg", printJPEG),
		Width:      pw,
		Height:     ph,
	}, nil
}

func (t *Transformer) preview(bmp *Bitmap, original []byte, mediaType string) (string, error) {
	w, h := Fit(bmp.Width(), bmp.Height(), t.opts.PreviewMaxSide)
	if w == bmp.Width() && h == bmp.Height() {
		mediaType = strings.TrimSpace(mediaType)
		if !strings.HasPrefix(mediaType, "image/") {
			mediaType = "image/" + bmp.Format()
		}
		return imageuri.Encode(mediaType, original), nil
	}
	encoded, err := bmp.Resize(w, h).EncodeJPEG(t.opts.PreviewQuality)
	if err != nil {
		return "", err
	}
	return imageuri.Encode("image/jpeg", encoded), nil
}
