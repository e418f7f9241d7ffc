package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"photoreport/internal/fileutil"
	"photoreport/internal/report"
	"photoreport/internal/textutil"
)

const (
	reportFileExt = ".json"
	// freeSpaceReserve keeps a margin so a save never fills the disk to the last block.
	freeSpaceReserve = 1 << 20
)

// FileStore writes one JSON document per key into a directory.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	quota int64
	// statfs is swapped in tests to simulate a full disk.
	statfs func(path string, buf *unix.Statfs_t) error
}

// OpenFileStore prepares dir and returns a FileStore rooted there.
func OpenFileStore(dir string, quotaBytes int64) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("file store directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &FileStore{dir: dir, quota: quotaBytes, statfs: unix.Statfs}, nil
}

// Dir returns the directory holding report files.
func (s *FileStore) Dir() string { return s.dir }

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, key string, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeReport(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := fileName(key)
	if err := s.checkCapacity(key, name, int64(len(payload))); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(s.dir, name), payload, 0o644); err != nil {
		if errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT) {
			return fullError(key, "no space left on device", err)
		}
		return fmt.Errorf("write report %s: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, fileName(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read report %s: %w", key, err)
	}
	return decodeReport(data)
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) checkCapacity(key, name string, size int64) error {
	if s.quota > 0 {
		used, err := fileutil.DirSize(s.dir, func(entry string) bool {
			return entry == name || !strings.HasSuffix(entry, reportFileExt)
		})
		if err != nil {
			return fmt.Errorf("measure reports dir: %w", err)
		}
		if used+size > s.quota {
			return fullError(key, "report quota exceeded", nil)
		}
	}

	var st unix.Statfs_t
	if err := s.statfs(s.dir, &st); err != nil {
		return fmt.Errorf("statfs %s: %w", s.dir, err)
	}
	free := int64(st.Bavail) * int64(st.Bsize) //nolint:gosec
	if free < size+freeSpaceReserve {
		return fullError(key, fmt.Sprintf("only %d bytes free", free), nil)
	}
	return nil
}

// fileName maps a key to a stable, filesystem-safe name. The hash suffix
// keeps keys that sanitize identically from colliding.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	base := textutil.SanitizeFileName(key)
	if len(base) > 120 {
		base = strings.ToValidUTF8(base[:120], "")
	}
	return base + "-" + hex.EncodeToString(sum[:6]) + reportFileExt
}
