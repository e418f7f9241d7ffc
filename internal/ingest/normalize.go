package ingest

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"photoreport/internal/services"
)

// Conversion is one request to a Codec.
type Conversion struct {
	Payload    []byte
	TargetType string
	Quality    float64
}

// Codec converts HEIC/HEIF payloads. It may return several payloads for
// multi-image containers; the first is used.
type Codec interface {
	Convert(ctx context.Context, req Conversion) ([][]byte, error)
}

// Availability is implemented by codecs that can report, at call time,
// whether they are able to run.
type Availability interface {
	Available() bool
}

const (
	targetType     = "image/jpeg"
	defaultQuality = 0.9
)

// Normalizer converts HEIC/HEIF files to JPEG and passes everything else
// through untouched.
type Normalizer struct {
	codec   Codec
	quality float64
}

// NewNormalizer constructs a Normalizer. A nil codec is allowed; HEIC input
// then fails with ErrConversionUnavailable.
func NewNormalizer(codec Codec, quality float64) *Normalizer {
	if quality <= 0 || quality > 1 {
		quality = defaultQuality
	}
	return &Normalizer{codec: codec, quality: quality}
}

// Normalize returns f unchanged unless it is HEIC/HEIF, in which case the
// converted JPEG is returned renamed to "<base>.jpg".
func (n *Normalizer) Normalize(ctx context.Context, f File) (File, error) {
	if !IsHEIC(f) {
		return f, nil
	}
	if !n.available() {
		return File{}, services.Wrap(ErrConversionUnavailable, "normalize", f.Name, "no heic converter available", nil)
	}

	payloads, err := n.codec.Convert(ctx, Conversion{Payload: f.Data, TargetType: targetType, Quality: n.quality})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return File{}, services.Wrap(ErrConversionUnavailable, "normalize", f.Name, "heic converter missing", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return File{}, ctxErr
		}
		return File{}, services.Wrap(ErrConversion, "normalize", f.Name, "", err)
	}
	if len(payloads) == 0 || len(payloads[0]) == 0 {
		return File{}, services.Wrap(ErrConversion, "normalize", f.Name, "converter produced no output", nil)
	}

	return NewFile(jpegName(f.Name), targetType, payloads[0]), nil
}

func (n *Normalizer) available() bool {
	if n == nil || n.codec == nil {
		return false
	}
	if a, ok := n.codec.(Availability); ok {
		return a.Available()
	}
	return true
}

func jpegName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "photo"
	}
	return base + ".jpg"
}
