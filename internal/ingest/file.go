package ingest

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// File is one candidate upload: a name, a declared media type, and its bytes.
type File struct {
	Name string
	Type string
	Size int64
	Data []byte
}

var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
	"bmp": {}, "tif": {}, "tiff": {}, "heic": {}, "heif": {},
}

// NewFile builds a File from raw bytes, deriving Size from the payload.
func NewFile(name, mediaType string, data []byte) File {
	return File{Name: name, Type: strings.TrimSpace(mediaType), Size: int64(len(data)), Data: data}
}

// Extension returns the lowercase extension without the dot.
func (f File) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// IsImage reports whether the file is acceptable input: an image/* media
// type, or a known image extension when the type is missing or generic.
func IsImage(f File) bool {
	if strings.HasPrefix(strings.ToLower(f.Type), "image/") {
		return true
	}
	_, ok := imageExtensions[f.Extension()]
	return ok
}

// IsHEIC reports whether the file needs HEIC/HEIF conversion.
func IsHEIC(f File) bool {
	switch strings.ToLower(f.Type) {
	case "image/heic", "image/heif":
		return true
	}
	switch f.Extension() {
	case "heic", "heif":
		return true
	}
	return false
}

// MediaTypeByName guesses a media type from the file extension. HEIC and
// HEIF are mapped explicitly because most mime tables lack them.
func MediaTypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return ""
}

// ReadFile loads a File from disk, naming it by its base name.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return NewFile(name, MediaTypeByName(name), data), nil
}
