package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"photoreport/internal/config"
	"photoreport/internal/fileutil"
)

// CheckStorageUsage reports the bytes held by the configured backend against
// the quota. It fails only when usage has reached the quota.
func CheckStorageUsage(cfg *config.Config) Result {
	const name = "Storage"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}

	var (
		used     int64
		location string
		err      error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return Result{Name: name, Passed: true, Detail: "memory (reports are lost on exit)"}
	case config.BackendFile:
		location = cfg.ReportsDir()
		used, err = fileutil.DirSize(location, func(name string) bool {
			return !strings.HasSuffix(name, ".json")
		})
	default:
		location = cfg.DatabasePath()
		used, err = sqliteSize(location)
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", location, err)}
	}

	detail := fmt.Sprintf("%s %s, %s used", cfg.Storage.Backend, location, humanize.IBytes(uint64(used)))
	if quota := cfg.Storage.QuotaBytes; quota > 0 {
		detail += fmt.Sprintf(" of %s", humanize.IBytes(uint64(quota)))
		if used >= quota {
			return Result{Name: name, Detail: detail + " (quota reached)"}
		}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func sqliteSize(path string) (int64, error) {
	var total int64
	for _, suffix := range []string{"", "-wal"} {
		info, err := os.Stat(path + suffix)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// InstanceProbe reports whether a serve or watch process holds the lock.
type InstanceProbe struct {
	Running  bool
	LockPath string
	Detail   string
}

// ProbeInstance tries the instance lock without keeping it.
func ProbeInstance(cfg *config.Config) InstanceProbe {
	path := cfg.LockPath()
	probe := InstanceProbe{LockPath: path}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		probe.Detail = "Not running"
		return probe
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		probe.Detail = fmt.Sprintf("Unknown (%v)", err)
		return probe
	}
	if !ok {
		probe.Running = true
		probe.Detail = "Running"
		return probe
	}
	_ = lock.Unlock()
	probe.Detail = "Not running"
	return probe
}
