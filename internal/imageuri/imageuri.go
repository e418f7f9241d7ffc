// Package imageuri encodes and decodes the self-contained data URIs used to
// embed photo payloads in reports.
package imageuri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const scheme = "data:"

// ErrInvalid reports a value that is not a well-formed data URI.
var ErrInvalid = errors.New("invalid data uri")

// Encode renders data as a base64 data URI with the given media type.
// An empty media type defaults to application/octet-stream.
func Encode(mediaType string, data []byte) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	var b strings.Builder
	b.Grow(len(scheme) + len(mediaType) + len(";base64,") + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(scheme)
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// Decode parses a data URI and returns its media type and payload.
func Decode(uri string) (string, []byte, error) {
	header, payload, err := split(uri)
	if err != nil {
		return "", nil, err
	}
	mediaType, isBase64 := parseHeader(header)
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return mediaType, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return mediaType, []byte(text), nil
}

// MediaType returns the declared media type without decoding the payload.
func MediaType(uri string) (string, error) {
	header, _, err := split(uri)
	if err != nil {
		return "", err
	}
	mediaType, _ := parseHeader(header)
	return mediaType, nil
}

// IsDataURI reports whether s looks like an image data URI.
func IsDataURI(s string) bool {
	if !hasScheme(s) {
		return false
	}
	mediaType, err := MediaType(s)
	return err == nil && strings.HasPrefix(mediaType, "image/")
}

func split(uri string) (string, string, error) {
	if !hasScheme(uri) {
		return "", "", fmt.Errorf("%w: missing data scheme", ErrInvalid)
	}
	header, payload, ok := strings.Cut(uri[len(scheme):], ",")
	if !ok {
		return "", "", fmt.Errorf("%w: missing payload separator", ErrInvalid)
	}
	return header, payload, nil
}

func parseHeader(header string) (string, bool) {
	parts := strings.Split(header, ";")
	mediaType := strings.ToLower(strings.TrimSpace(parts[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}
	isBase64 := false
	for _, param := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(param), "base64") {
			isBase64 = true
		}
	}
	return mediaType, isBase64
}

func hasScheme(s string) bool {
	return len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme)
}
