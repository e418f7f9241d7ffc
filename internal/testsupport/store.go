package testsupport

import (
	"testing"

	"photoreport/internal/config"
	"photoreport/internal/storage"
)

// MustOpenStore opens the configured storage backend for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) storage.Store {
	t.Helper()

	store, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
