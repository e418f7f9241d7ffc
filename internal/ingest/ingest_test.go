package ingest_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"photoreport/internal/ingest"
	"photoreport/internal/raster"
	"photoreport/internal/report"
	"photoreport/internal/testsupport"
)

type fakeCodec struct {
	payloads  [][]byte
	err       error
	available bool
	calls     []ingest.Conversion
}

func (f *fakeCodec) Convert(ctx context.Context, req ingest.Conversion) ([][]byte, error) {
	f.calls = append(f.calls, req)
	return f.payloads, f.err
}

func (f *fakeCodec) Available() bool { return f.available }

func TestIsImage(t *testing.T) {
	cases := []struct {
		file ingest.File
		want bool
	}{
		{ingest.File{Name: "a.png", Type: "image/png"}, true},
		{ingest.File{Name: "scan", Type: "image/x-whatever"}, true},
		{ingest.File{Name: "IMG_0001.HEIC"}, true},
		{ingest.File{Name: "photo.TIF", Type: "application/octet-stream"}, true},
		{ingest.File{Name: "b.txt", Type: "text/plain"}, false},
		{ingest.File{Name: "archive.zip"}, false},
		{ingest.File{Name: "noext"}, false},
	}
	for _, tc := range cases {
		if got := ingest.IsImage(tc.file); got != tc.want {
			t.Fatalf("IsImage(%+v) = %v, want %v", tc.file, got, tc.want)
		}
	}
}

func TestIsHEIC(t *testing.T) {
	if !ingest.IsHEIC(ingest.File{Name: "x", Type: "image/heif"}) {
		t.Fatal("expected heif media type to be detected")
	}
	if !ingest.IsHEIC(ingest.File{Name: "x.Heic"}) {
		t.Fatal("expected heic extension to be detected")
	}
	if ingest.IsHEIC(ingest.File{Name: "x.jpg", Type: "image/jpeg"}) {
		t.Fatal("jpeg is not heic")
	}
}

func TestMediaTypeByName(t *testing.T) {
	if got := ingest.MediaTypeByName("a.HEIC"); got != "image/heic" {
		t.Fatalf("MediaTypeByName heic = %q", got)
	}
	if got := ingest.MediaTypeByName("a.png"); got != "image/png" {
		t.Fatalf("MediaTypeByName png = %q", got)
	}
	if got := ingest.MediaTypeByName("README"); got != "" {
		t.Fatalf("MediaTypeByName without extension = %q", got)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.png")
	testsupport.WriteFile(t, path, testsupport.PNG(t, 8, 8))

	f, err := ingest.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if f.Name != "deck.png" || f.Type != "image/png" || f.Size != int64(len(f.Data)) {
		t.Fatalf("unexpected file: name=%q type=%q size=%d", f.Name, f.Type, f.Size)
	}
	if _, err := ingest.ReadFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalizePassesThroughNonHEIC(t *testing.T) {
	codec := &fakeCodec{available: true}
	n := ingest.NewNormalizer(codec, 0.9)
	in := ingest.NewFile("a.png", "image/png", []byte("png"))
	out, err := n.Normalize(context.Background(), in)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out.Name != in.Name || out.Type != in.Type || string(out.Data) != "png" {
		t.Fatalf("expected passthrough, got %+v", out)
	}
	if len(codec.calls) != 0 {
		t.Fatal("codec should not be called for non-heic input")
	}
}

func TestNormalizeConvertsHEIC(t *testing.T) {
	codec := &fakeCodec{available: true, payloads: [][]byte{[]byte("first-jpeg"), []byte("second")}}
	n := ingest.NewNormalizer(codec, 0.9)
	out, err := n.Normalize(context.Background(), ingest.NewFile("IMG_0042.HEIC", "", []byte("heic-bytes")))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out.Name != "IMG_0042.jpg" || out.Type != "image/jpeg" {
		t.Fatalf("unexpected normalized file %q %q", out.Name, out.Type)
	}
	if string(out.Data) != "first-jpeg" || out.Size != int64(len("first-jpeg")) {
		t.Fatalf("expected first payload, got %q (%d)", out.Data, out.Size)
	}
	req := codec.calls[0]
	if req.TargetType != "image/jpeg" || req.Quality != 0.9 || string(req.Payload) != "heic-bytes" {
		t.Fatalf("unexpected conversion request %+v", req)
	}
}

func TestNormalizeErrors(t *testing.T) {
	heic := ingest.NewFile("a.heic", "image/heic", []byte("x"))
	cases := []struct {
		name  string
		codec ingest.Codec
		want  error
	}{
		{"nil codec", nil, ingest.ErrConversionUnavailable},
		{"unavailable", &fakeCodec{available: false}, ingest.ErrConversionUnavailable},
		{"rejected", &fakeCodec{available: true, err: errors.New("bad heic")}, ingest.ErrConversion},
		{"empty output", &fakeCodec{available: true}, ingest.ErrConversion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ingest.NewNormalizer(tc.codec, 0.9).Normalize(context.Background(), heic)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRunSkipsNonImagesAndKeepsOrder(t *testing.T) {
	pipeline := ingest.NewPipeline(nil, raster.NewTransformer(raster.DefaultOptions()), nil)
	cards := report.NewCards([]report.CardData{{Caption: "existing"}})

	files := []ingest.File{
		ingest.NewFile("a.png", "image/png", testsupport.PNG(t, 30, 20)),
		ingest.NewFile("b.txt", "text/plain", []byte("hello")),
		ingest.NewFile("c.jpg", "image/jpeg", testsupport.JPEG(t, 20, 30)),
	}
	next := 0
	outcomes := pipeline.Run(context.Background(), files, func(data report.CardData) *report.PhotoCard {
		card := cards.InsertAt(next, data)
		next++
		return card
	})

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if !errors.Is(outcomes[1].Err, ingest.ErrNotAnImage) {
		t.Fatalf("expected b.txt to be rejected, got %v", outcomes[1].Err)
	}
	if len(ingest.Failed(outcomes)) != 0 {
		t.Fatalf("non-images should not count as failures: %+v", ingest.Failed(outcomes))
	}
	added := ingest.Added(outcomes)
	if len(added) != 2 {
		t.Fatalf("expected 2 added cards, got %d", len(added))
	}

	snapshot := cards.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(snapshot))
	}
	if snapshot[0].ID != added[0].ID || snapshot[1].ID != added[1].ID || snapshot[2].Caption != "existing" {
		t.Fatalf("unexpected order: %+v", snapshot)
	}
	if snapshot[0].SizeLabel != report.SizeLabel(files[0].Size) {
		t.Fatalf("size label = %q, want %q", snapshot[0].SizeLabel, report.SizeLabel(files[0].Size))
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	pipeline := ingest.NewPipeline(ingest.NewNormalizer(nil, 0), nil, nil)
	files := []ingest.File{
		ingest.NewFile("broken.jpg", "image/jpeg", []byte("not really a jpeg")),
		ingest.NewFile("phone.heic", "image/heic", []byte("heic")),
		ingest.NewFile("ok.png", "image/png", testsupport.PNG(t, 8, 8)),
	}
	var inserted int
	outcomes := pipeline.Run(context.Background(), files, func(report.CardData) *report.PhotoCard {
		inserted++
		return &report.PhotoCard{}
	})

	if !errors.Is(outcomes[0].Err, raster.ErrDecode) {
		t.Fatalf("expected decode failure, got %v", outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, ingest.ErrConversionUnavailable) {
		t.Fatalf("expected conversion unavailable, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err != nil || inserted != 1 {
		t.Fatalf("expected last file to succeed, got %v (inserted %d)", outcomes[2].Err, inserted)
	}
	if len(ingest.Failed(outcomes)) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(ingest.Failed(outcomes)))
	}
}

func TestRunStopsProcessingAfterCancel(t *testing.T) {
	pipeline := ingest.NewPipeline(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	files := []ingest.File{
		ingest.NewFile("a.png", "image/png", testsupport.PNG(t, 4, 4)),
		ingest.NewFile("b.png", "image/png", testsupport.PNG(t, 4, 4)),
	}
	outcomes := pipeline.Run(ctx, files, func(report.CardData) *report.PhotoCard {
		cancel()
		return &report.PhotoCard{}
	})
	if outcomes[0].Err != nil {
		t.Fatalf("first file should succeed, got %v", outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, context.Canceled) {
		t.Fatalf("second file should observe cancellation, got %v", outcomes[1].Err)
	}
}

func TestProcessSkipsValidation(t *testing.T) {
	pipeline := ingest.NewPipeline(nil, nil, nil)
	data, err := pipeline.Process(context.Background(), ingest.NewFile("mislabelled.txt", "text/plain", testsupport.PNG(t, 5, 5)))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if data.PrintImage == "" || data.PreviewImage == "" {
		t.Fatalf("expected both variants, got %+v", data)
	}
}
