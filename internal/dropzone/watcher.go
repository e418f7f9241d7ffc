// Package dropzone turns files copied into a watched folder into ingestion
// batches.
package dropzone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"photoreport/internal/ingest"
	"photoreport/internal/logging"
)

// Handler receives each debounced batch of dropped files, in name order.
type Handler func(ctx context.Context, files []ingest.File)

// Watcher observes one directory and emits batches once writes settle.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	logger   *slog.Logger
}

// New constructs a Watcher. A non-positive debounce defaults to 500ms.
func New(dir string, debounce time.Duration, handle Handler, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		logger:   logging.NewComponentLogger(logger, "dropzone"),
	}
}

// Run watches until ctx is cancelled. A file is batched once no create or
// write event has touched it for the debounce interval.
func (w *Watcher) Run(ctx context.Context) error {
	if w.handle == nil {
		return errors.New("dropzone handler required")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create drop folder: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching drop folder", logging.String("dir", w.dir), logging.Duration("debounce", w.debounce))

	pending := map[string]time.Time{}
	ticker := time.NewTicker(max(w.debounce/2, 25*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !candidate(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			ready := settled(pending, w.debounce, time.Now())
			if len(ready) == 0 {
				continue
			}
			if files := w.read(ready); len(files) > 0 {
				w.handle(ctx, files)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "drop folder watch error", "dropzone_watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some dropped files may be missed"),
			)
		}
	}
}

// settled removes and returns the names whose last event is older than
// debounce, sorted by name.
func settled(pending map[string]time.Time, debounce time.Duration, now time.Time) []string {
	var ready []string
	for name, seen := range pending {
		if now.Sub(seen) >= debounce {
			ready = append(ready, name)
			delete(pending, name)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) read(names []string) []ingest.File {
	files := make([]ingest.File, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(w.dir, name))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.WarnWithContext(w.logger, "could not read dropped file", "dropzone_read_failed",
					logging.String(logging.FieldFile, name),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file was not added to the report"),
				)
			}
			continue
		}
		files = append(files, ingest.NewFile(name, ingest.MediaTypeByName(name), data))
	}
	return files
}

// candidate filters out hidden files, partial downloads, and anything whose
// extension is not an accepted image type.
func candidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range []string{".tmp", ".part", ".crdownload"} {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return ingest.IsImage(ingest.File{Name: name})
}
