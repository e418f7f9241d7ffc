package printview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"photoreport/internal/imageuri"
)

//go:embed templates/print.html.tmpl
var templateFS embed.FS

var printTemplate = template.Must(
	template.New("print.html.tmpl").
		Funcs(template.FuncMap{"imageSrc": imageSrc}).
		ParseFS(templateFS, "templates/print.html.tmpl"),
)

// imageSrc returns a trusted URL for entries whose image is an image data URI
// that did not fail to load. Anything else is dropped from the output.
func imageSrc(e Entry) template.URL {
	if !e.HasImage() || e.State == ImageFailed || !imageuri.IsDataURI(e.Image) {
		return ""
	}
	return template.URL(e.Image) //nolint:gosec
}

// Render writes doc as a standalone HTML print document.
func Render(w io.Writer, doc *Document) error {
	if doc == nil {
		doc = &Document{}
	}
	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, doc); err != nil {
		return fmt.Errorf("render print view: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write print view: %w", err)
	}
	return nil
}
