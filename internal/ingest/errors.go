package ingest

import (
	"fmt"

	"photoreport/internal/services"
)

var (
	// ErrNotAnImage marks files rejected by validation.
	ErrNotAnImage = fmt.Errorf("%w: not an image", services.ErrValidation)
	// ErrConversionUnavailable marks HEIC input when no converter can run.
	ErrConversionUnavailable = fmt.Errorf("%w: heic conversion unavailable", services.ErrConfiguration)
	// ErrConversion marks HEIC input the converter rejected.
	ErrConversion = fmt.Errorf("%w: heic conversion failed", services.ErrExternalTool)
)
