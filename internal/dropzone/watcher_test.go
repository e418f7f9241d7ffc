package dropzone_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"photoreport/internal/dropzone"
	"photoreport/internal/ingest"
	"photoreport/internal/testsupport"
)

func TestWatcherBatchesDroppedImages(t *testing.T) {
	dir := t.TempDir()
	var (
		mu      sync.Mutex
		batches [][]ingest.File
	)
	got := make(chan struct{}, 4)
	w := dropzone.New(dir, 50*time.Millisecond, func(_ context.Context, files []ingest.File) {
		mu.Lock()
		batches = append(batches, files)
		mu.Unlock()
		got <- struct{}{}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the watcher time to register before dropping files.
	time.Sleep(100 * time.Millisecond)
	testsupport.WriteFile(t, filepath.Join(dir, "b.png"), testsupport.PNG(t, 4, 4))
	testsupport.WriteFile(t, filepath.Join(dir, "a.png"), testsupport.PNG(t, 4, 4))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		total := 0
		for _, b := range batches {
			total += len(b)
		}
		mu.Unlock()
		if total >= 2 {
			break
		}
		select {
		case <-got:
		case <-deadline:
			t.Fatalf("timed out waiting for batches, got %d files", total)
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	seen := map[string]bool{}
	for _, b := range batches {
		for _, f := range b {
			seen[f.Name] = true
			if f.Type != "image/png" || f.Size == 0 {
				t.Fatalf("unexpected file %+v", f)
			}
		}
	}
	if !seen["a.png"] || !seen["b.png"] || seen["notes.txt"] {
		t.Fatalf("unexpected files batched: %v", seen)
	}
}
