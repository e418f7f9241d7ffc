package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"photoreport/internal/ingest"
	"photoreport/internal/logging"
	"photoreport/internal/services"
	"photoreport/internal/session"
	"photoreport/internal/storage"
)

type envelope map[string]any

const maxJSONBytes = 1 << 20

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("api response encode failed", logging.Error(err))
	}
}

func (s *apiServer) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func (s *apiServer) errorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, envelope{"error": message})
}

func (s *apiServer) badRequest(w http.ResponseWriter, err error) {
	s.errorResponse(w, http.StatusBadRequest, err.Error())
}

// failure maps an operation error onto a status code and a payload carrying
// the user notice and the error classification.
func (s *apiServer) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_"+services.Kind(err),
			logging.String("method", r.Method),
			logging.String("uri", r.URL.RequestURI()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "see the error field of the response"),
		)
	}
	s.writeJSON(w, status, envelope{
		"error":  err.Error(),
		"kind":   services.Kind(err),
		"notice": session.Notice(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrStorageFull):
		return http.StatusInsufficientStorage
	case errors.Is(err, ingest.ErrConversionUnavailable):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrExternalTool):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
