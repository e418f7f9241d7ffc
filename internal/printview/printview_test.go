package printview_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photoreport/internal/imageuri"
	"photoreport/internal/printview"
	"photoreport/internal/report"
	"photoreport/internal/testsupport"
)

func photoCards(n int, image string) []report.PhotoCard {
	cards := make([]report.PhotoCard, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, report.PhotoCard{PrintImage: image, Caption: fmt.Sprintf("photo %d", i+1)})
	}
	return cards
}

func TestComposePaginatesBySix(t *testing.T) {
	doc := printview.Compose(report.Metadata{}, photoCards(13, "data:image/jpeg;base64,AA=="))
	if !doc.HasPhotos() {
		t.Fatal("expected photos")
	}
	sizes := make([]int, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		sizes = append(sizes, len(p.Entries))
	}
	if fmt.Sprint(sizes) != "[6 6 1]" {
		t.Fatalf("page sizes = %v, want [6 6 1]", sizes)
	}
	if doc.Pages[2].Entries[0].Caption != "photo 13" {
		t.Fatalf("unexpected last entry %+v", doc.Pages[2].Entries[0])
	}
}

func TestComposeSkipsEmptyCardsAndPrefersPrintImage(t *testing.T) {
	cards := []report.PhotoCard{
		{},
		{PreviewImage: "preview-only"},
		{Caption: "caption only"},
		{PreviewImage: "preview", PrintImage: "print"},
		{},
	}
	doc := printview.Compose(report.Metadata{ClientName: "Acme"}, cards)
	if doc.EntryCount() != 3 {
		t.Fatalf("expected 3 entries, got %d", doc.EntryCount())
	}
	entries := doc.Pages[0].Entries
	if entries[0].Image != "preview-only" {
		t.Fatalf("expected preview fallback, got %q", entries[0].Image)
	}
	if entries[1].HasImage() || entries[1].Caption != "caption only" {
		t.Fatalf("expected caption-only entry, got %+v", entries[1])
	}
	if entries[2].Image != "print" {
		t.Fatalf("expected print image preferred, got %q", entries[2].Image)
	}
}

func TestComposeEmptyReport(t *testing.T) {
	doc := printview.Compose(report.Metadata{}, make([]report.PhotoCard, report.PlaceholderSlots))
	if doc.HasPhotos() || doc.EntryCount() != 0 {
		t.Fatalf("expected no photos, got %d entries", doc.EntryCount())
	}
}

func TestPrepareMarksLoadedAndFailedImages(t *testing.T) {
	good := imageuri.Encode("image/png", testsupport.PNG(t, 12, 9))
	cards := []report.PhotoCard{
		{PrintImage: good},
		{PrintImage: "data:image/png;base64,bm90IGFuIGltYWdl"},
		{PrintImage: "https://example.com/remote.jpg"},
		{Caption: "no image"},
	}
	doc, err := printview.Prepare(context.Background(), report.Metadata{}, cards)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	entries := doc.Pages[0].Entries
	if entries[0].State != printview.ImageLoaded || entries[0].Width != 12 || entries[0].Height != 9 {
		t.Fatalf("expected loaded 12x9 entry, got %+v", entries[0])
	}
	if entries[1].State != printview.ImageFailed || entries[2].State != printview.ImageFailed {
		t.Fatalf("expected failures, got %v and %v", entries[1].State, entries[2].State)
	}
	if entries[3].State != printview.ImagePending {
		t.Fatalf("caption-only entry should stay pending, got %v", entries[3].State)
	}
}

func TestPrepareHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := printview.Prepare(ctx, report.Metadata{}, photoCards(3, "data:image/png;base64,AA=="))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderProducesPagesAndEscapesText(t *testing.T) {
	good := imageuri.Encode("image/png", testsupport.PNG(t, 4, 4))
	cards := append(photoCards(7, good), report.PhotoCard{Caption: "<script>alert(1)</script>"})
	meta := report.Metadata{ClientName: "Acme & Sons", PropertyName: "12 Oak", Summary: "line one\nline two"}

	doc, err := printview.Prepare(context.Background(), meta, cards)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	var buf bytes.Buffer
	if err := printview.Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, `<div class="pv-photos-page">`); got != 2 {
		t.Fatalf("expected 2 photo pages, got %d", got)
	}
	if got := strings.Count(out, `<img src="data:image/png;base64,`); got != 7 {
		t.Fatalf("expected 7 embedded images, got %d", got)
	}
	if strings.Contains(out, "<script>") {
		t.Fatal("caption was not escaped")
	}
	if !strings.Contains(out, "Acme &amp; Sons") || !strings.Contains(out, `class="has-photos"`) {
		t.Fatalf("missing header content in output")
	}
}

func TestRenderDropsFailedImages(t *testing.T) {
	doc := printview.Compose(report.Metadata{}, []report.PhotoCard{{PrintImage: "javascript:alert(1)", Caption: "x"}})
	var buf bytes.Buffer
	if err := printview.Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(buf.String(), "<img") || strings.Contains(buf.String(), "javascript:") {
		t.Fatal("non-data image reference should not be rendered")
	}
}

func TestFilePrinterWritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	doc := printview.Compose(report.Metadata{PropertyName: "Depot"}, nil)
	if err := (printview.FilePrinter{Path: path}).Print(context.Background(), doc); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "Photo Report - Depot") {
		t.Fatalf("unexpected output %.200s", data)
	}
}
