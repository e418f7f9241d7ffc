package printview

import "photoreport/internal/report"

// PhotosPerPage is the number of photo entries grouped onto one print page.
const PhotosPerPage = 6

// ImageState tracks the load state of an entry's embedded image.
type ImageState int

const (
	ImagePending ImageState = iota
	ImageLoaded
	ImageFailed
)

func (s ImageState) String() string {
	switch s {
	case ImageLoaded:
		return "loaded"
	case ImageFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Entry is one photo in the print document. Image may be empty for a
// caption-only entry.
type Entry struct {
	Image   string
	Caption string
	State   ImageState
	Width   int
	Height  int
}

// HasImage reports whether the entry embeds an image reference.
func (e Entry) HasImage() bool { return e.Image != "" }

// Page groups up to PhotosPerPage entries.
type Page struct {
	Entries []Entry
}

// Document is the composed print view.
type Document struct {
	Meta  report.Metadata
	Pages []Page
}

// HasPhotos reports whether at least one photo entry was composed.
func (d *Document) HasPhotos() bool {
	return d != nil && len(d.Pages) > 0
}

// EntryCount returns the number of photo entries across all pages.
func (d *Document) EntryCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, p := range d.Pages {
		n += len(p.Entries)
	}
	return n
}

// Compose builds a fresh Document from the report header and cards.
func Compose(meta report.Metadata, cards []report.PhotoCard) *Document {
	doc := &Document{Meta: meta}
	for _, card := range cards {
		image := card.PrintImage
		if image == "" {
			image = card.PreviewImage
		}
		if image == "" && card.Caption == "" {
			continue
		}
		if len(doc.Pages) == 0 || len(doc.Pages[len(doc.Pages)-1].Entries) == PhotosPerPage {
			doc.Pages = append(doc.Pages, Page{Entries: make([]Entry, 0, PhotosPerPage)})
		}
		page := &doc.Pages[len(doc.Pages)-1]
		page.Entries = append(page.Entries, Entry{Image: image, Caption: card.Caption})
	}
	return doc
}
