package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photoreport/internal/config"
	"photoreport/internal/report"
	"photoreport/internal/storage"
	"photoreport/internal/storage/storagetest"
	"photoreport/internal/testsupport"
)

func TestMemoryStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return storage.NewMemoryStore(0)
	})
}

func TestFileStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, err := storage.OpenFileStore(t.TempDir(), 0)
		if err != nil {
			t.Fatalf("OpenFileStore failed: %v", err)
		}
		return store
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "reports.db"), storage.SQLiteOptions{})
		if err != nil {
			t.Fatalf("OpenSQLite failed: %v", err)
		}
		return store
	})
}

func TestKey(t *testing.T) {
	cases := []struct {
		client, property, want string
	}{
		{"Acme", "12 Oak", "photo-report::Acme::12 Oak"},
		{"  Acme ", " 12 Oak  ", "photo-report::Acme::12 Oak"},
		{"", "", "photo-report::client::property"},
		{"   ", "Lot 4", "photo-report::client::Lot 4"},
	}
	for _, tc := range cases {
		if got := storage.Key(tc.client, tc.property); got != tc.want {
			t.Fatalf("Key(%q, %q) = %q, want %q", tc.client, tc.property, got, tc.want)
		}
	}
}

func TestKeyKeepsCompositionVariantsApart(t *testing.T) {
	composed := storage.Key("Caf\u00e9", "p")
	decomposed := storage.Key("Cafe\u0301", "p")
	if composed == decomposed {
		t.Fatalf("expected distinct keys, both were %q", composed)
	}

	store, err := storage.OpenFileStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, composed, &report.Report{Metadata: report.Metadata{Summary: "A"}}); err != nil {
		t.Fatalf("Put A failed: %v", err)
	}
	if err := store.Put(ctx, decomposed, &report.Report{Metadata: report.Metadata{Summary: "B"}}); err != nil {
		t.Fatalf("Put B failed: %v", err)
	}
	got, err := store.Get(ctx, composed)
	if err != nil || got == nil {
		t.Fatalf("Get A failed: %v", err)
	}
	if got.Summary != "A" {
		t.Fatalf("report A was overwritten: summary %q", got.Summary)
	}
}

func TestQuotaExhaustionKeepsPriorData(t *testing.T) {
	backends := map[string]func(t *testing.T, quota int64) storage.Store{
		"memory": func(t *testing.T, quota int64) storage.Store { return storage.NewMemoryStore(quota) },
		"file": func(t *testing.T, quota int64) storage.Store {
			store, err := storage.OpenFileStore(t.TempDir(), quota)
			if err != nil {
				t.Fatalf("OpenFileStore failed: %v", err)
			}
			return store
		},
		"sqlite": func(t *testing.T, quota int64) storage.Store {
			store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "q.db"), storage.SQLiteOptions{QuotaBytes: quota})
			if err != nil {
				t.Fatalf("OpenSQLite failed: %v", err)
			}
			return store
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t, 4096)
			defer store.Close()
			ctx := context.Background()
			key := storage.Key("Acme", "12 Oak")

			small := storagetest.Sample(2)
			if err := store.Put(ctx, key, small); err != nil {
				t.Fatalf("Put small failed: %v", err)
			}

			big := storagetest.Sample(1)
			big.Photos[0].PreviewImage = "data:image/png;base64," + strings.Repeat("A", 8192)
			err := store.Put(ctx, key, big)
			if !errors.Is(err, storage.ErrStorageFull) {
				t.Fatalf("expected ErrStorageFull, got %v", err)
			}

			got, err := store.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			storagetest.AssertEqual(t, got, small)
		})
	}
}

func TestSQLiteMaxPageCountMapsToFull(t *testing.T) {
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "tiny.db"), storage.SQLiteOptions{MaxPages: 8})
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer store.Close()

	big := storagetest.Sample(1)
	big.Photos[0].PrintImage = "data:image/jpeg;base64," + strings.Repeat("B", 256*1024)
	if err := store.Put(context.Background(), storage.Key("a", "b"), big); !errors.Is(err, storage.ErrStorageFull) {
		t.Fatalf("expected ErrStorageFull, got %v", err)
	}
}

func TestSQLiteSchemaPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	store, err := storage.OpenSQLite(path, storage.SQLiteOptions{})
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	key := storage.Key("Acme", "Depot")
	if err := store.Put(context.Background(), key, storagetest.Sample(3)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := storage.OpenSQLite(path, storage.SQLiteOptions{})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	storagetest.AssertEqual(t, got, storagetest.Sample(3))
}

func TestFileStoreWritesJSONDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.OpenFileStore(dir, 0)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if err := store.Put(context.Background(), storage.Key("A/B", "C:D"), storagetest.Sample(1)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(entries))
	}
	name := entries[0].Name()
	if strings.ContainsAny(name, "/:") || !strings.HasSuffix(name, ".json") {
		t.Fatalf("unexpected file name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), `"printImage"`) {
		t.Fatalf("expected persisted wire field names, got %s", data)
	}
}

func TestFileStoreCorruptPayload(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.OpenFileStore(dir, 0)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	key := storage.Key("x", "y")
	if err := store.Put(context.Background(), key, &report.Report{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if err := os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	if _, err := store.Get(context.Background(), key); err == nil {
		t.Fatal("expected decode error for corrupt payload")
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
			store, err := storage.Open(cfg)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer store.Close()
			if err := store.Put(context.Background(), storage.Key("a", "b"), storagetest.Sample(1)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		})
	}

	cfg := testsupport.NewConfig(t, testsupport.WithBackend("floppy"))
	if _, err := storage.Open(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
