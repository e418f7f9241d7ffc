package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"photoreport/internal/config"
	"photoreport/internal/report"
	"photoreport/internal/services"
	"photoreport/internal/textutil"
)

const keyPrefix = "photo-report"

// ErrStorageFull reports that a write was refused for lack of capacity.
var ErrStorageFull = fmt.Errorf("%w: storage full", services.ErrCapacity)

// Store is the keyed persistence boundary for reports.
type Store interface {
	// Put overwrites the report stored under key.
	Put(ctx context.Context, key string, r *report.Report) error
	// Get returns the report stored under key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*report.Report, error)
	Close() error
}

// Key derives the persistence key for a client/property pair from the trimmed
// names. Blank names fall back to "client" and "property".
func Key(client, property string) string {
	client = strings.TrimSpace(client)
	property = strings.TrimSpace(property)
	return keyPrefix + "::" +
		textutil.Ternary(client == "", "client", client) + "::" +
		textutil.Ternary(property == "", "property", property)
}

// Open constructs the backend selected by cfg.Storage.Backend.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("storage: config is nil")
	}
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStore(cfg.Storage.QuotaBytes), nil
	case config.BackendFile:
		return OpenFileStore(cfg.ReportsDir(), cfg.Storage.QuotaBytes)
	case config.BackendSQLite, "":
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenSQLite(cfg.DatabasePath(), SQLiteOptions{
			QuotaBytes: cfg.Storage.QuotaBytes,
			MaxPages:   cfg.Storage.SQLiteMaxPages,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "storage", "open", fmt.Sprintf("unknown backend %q", cfg.Storage.Backend), nil)
	}
}

func encodeReport(r *report.Report) ([]byte, error) {
	if r == nil {
		return nil, errors.New("report is nil")
	}
	clone := *r
	if clone.Photos == nil {
		clone.Photos = []report.PhotoCard{}
	}
	data, err := json.Marshal(&clone)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func decodeReport(data []byte) (*report.Report, error) {
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

func fullError(key, detail string, err error) error {
	return services.Wrap(ErrStorageFull, "persist", key, detail, err)
}
