package printview

import (
	"bytes"
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"photoreport/internal/imageuri"
	"photoreport/internal/report"

	// Decoders for the formats a preview may embed.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Prepare composes the document and waits for all embedded images.
func Prepare(ctx context.Context, meta report.Metadata, cards []report.PhotoCard) (*Document, error) {
	doc := Compose(meta, cards)
	if err := AwaitImages(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// AwaitImages loads every embedded image concurrently and records whether it
// loaded or failed. Individual failures never fail the wait; only context
// cancellation does.
func AwaitImages(ctx context.Context, doc *Document) error {
	if doc == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for pi := range doc.Pages {
		for ei := range doc.Pages[pi].Entries {
			entry := &doc.Pages[pi].Entries[ei]
			if !entry.HasImage() {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				loadEntry(entry)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func loadEntry(entry *Entry) {
	if !imageuri.IsDataURI(entry.Image) {
		entry.State = ImageFailed
		return
	}
	_, data, err := imageuri.Decode(entry.Image)
	if err != nil {
		entry.State = ImageFailed
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		entry.State = ImageFailed
		return
	}
	entry.Width, entry.Height = cfg.Width, cfg.Height
	entry.State = ImageLoaded
}
