package printview

import (
	"bytes"
	"context"
	"io"

	"photoreport/internal/fileutil"
)

// Printer receives a fully prepared Document.
type Printer interface {
	Print(ctx context.Context, doc *Document) error
}

// HTMLPrinter renders documents as HTML to a writer.
type HTMLPrinter struct {
	W io.Writer
}

// Print implements Printer.
func (p HTMLPrinter) Print(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Render(p.W, doc)
}

// FilePrinter renders documents as HTML into a file, replacing it atomically.
type FilePrinter struct {
	Path string
}

// Print implements Printer.
func (p FilePrinter) Print(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(p.Path, buf.Bytes(), 0o644)
}
