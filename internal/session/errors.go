package session

import (
	"errors"
	"fmt"

	"photoreport/internal/ingest"
	"photoreport/internal/services"
	"photoreport/internal/storage"
)

var (
	// ErrLoadNotFound reports that no report is stored under the current key.
	ErrLoadNotFound = fmt.Errorf("%w: no saved report", services.ErrNotFound)
	// ErrLoadFailed reports that a stored report exists but could not be read.
	ErrLoadFailed = fmt.Errorf("%w: saved report unreadable", services.ErrTransient)
	// ErrCardNotFound reports an operation on a card that is no longer present.
	ErrCardNotFound = fmt.Errorf("%w: photo card", services.ErrNotFound)
)

// User-facing notices for the outcome of save and load.
const (
	NoticeSaved           = "Saved on this device."
	NoticeSaveFailed      = "Could not save locally (storage may be full)."
	NoticeLoadNotFound    = "No saved report found for this client/property."
	NoticeLoadFailed      = "Could not read the saved report; it was left untouched."
	NoticeHEICUnsupported = "HEIC photos need libheif's heif-convert; this photo was skipped."
)

// Notice maps an operation error to the message shown to the user. A nil
// error after Save yields NoticeSaved.
func Notice(err error) string {
	switch {
	case err == nil:
		return NoticeSaved
	case errors.Is(err, ErrLoadNotFound):
		return NoticeLoadNotFound
	case errors.Is(err, ErrLoadFailed):
		return NoticeLoadFailed
	case errors.Is(err, storage.ErrStorageFull):
		return NoticeSaveFailed
	case errors.Is(err, ingest.ErrConversionUnavailable):
		return NoticeHEICUnsupported
	default:
		return err.Error()
	}
}
