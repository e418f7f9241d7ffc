// Package storagetest provides a behavioural test suite every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"photoreport/internal/report"
	"photoreport/internal/storage"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.Store

// Run exercises the Store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("GetMissingReturnsNil", func(t *testing.T) {
		store := open(t, newStore)
		got, err := store.Get(context.Background(), storage.Key("nobody", "nowhere"))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil report, got %+v", got)
		}
	})

	t.Run("RoundTripPreservesOrder", func(t *testing.T) {
		store := open(t, newStore)
		key := storage.Key("Acme", "12 Oak")
		want := Sample(5)
		if err := store.Put(context.Background(), key, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		AssertEqual(t, got, want)
	})

	t.Run("PutOverwritesWholesale", func(t *testing.T) {
		store := open(t, newStore)
		key := storage.Key("Acme", "12 Oak")
		if err := store.Put(context.Background(), key, Sample(4)); err != nil {
			t.Fatalf("first Put failed: %v", err)
		}
		replacement := Sample(1)
		replacement.Summary = "rewritten"
		if err := store.Put(context.Background(), key, replacement); err != nil {
			t.Fatalf("second Put failed: %v", err)
		}
		got, err := store.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		AssertEqual(t, got, replacement)
	})

	t.Run("KeysAreIsolated", func(t *testing.T) {
		store := open(t, newStore)
		a := Sample(2)
		a.ClientName = "A"
		b := Sample(3)
		b.ClientName = "B"
		keyA := storage.Key("A", "P")
		keyB := storage.Key("B", "P")
		if err := store.Put(context.Background(), keyA, a); err != nil {
			t.Fatalf("Put A failed: %v", err)
		}
		if err := store.Put(context.Background(), keyB, b); err != nil {
			t.Fatalf("Put B failed: %v", err)
		}
		gotA, err := store.Get(context.Background(), keyA)
		if err != nil {
			t.Fatalf("Get A failed: %v", err)
		}
		AssertEqual(t, gotA, a)
	})

	t.Run("EmptyReport", func(t *testing.T) {
		store := open(t, newStore)
		key := storage.Key("", "")
		if err := store.Put(context.Background(), key, &report.Report{}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got == nil || len(got.Photos) != 0 || got.ClientName != "" {
			t.Fatalf("unexpected empty report round trip: %+v", got)
		}
	})

	t.Run("PutNilReportFails", func(t *testing.T) {
		store := open(t, newStore)
		if err := store.Put(context.Background(), storage.Key("a", "b"), nil); err == nil {
			t.Fatal("expected error for nil report")
		}
	})
}

// Sample builds a report with n distinct photos.
func Sample(n int) *report.Report {
	r := &report.Report{
		Metadata: report.Metadata{
			ClientName:   "Acme Property Group",
			PropertyName: "12 Oak Street",
			ReportDate:   "2026-10-19",
			PreparedBy:   "J. Inspector",
			Summary:      "Roof and gutters inspected.\nNo active leaks.",
		},
		Photos: make([]report.PhotoCard, 0, n),
	}
	for i := 0; i < n; i++ {
		r.Photos = append(r.Photos, report.PhotoCard{
			PreviewImage: fmt.Sprintf("data:image/png;base64,cHJldmlldy0%d", i),
			PrintImage:   fmt.Sprintf("data:image/jpeg;base64,cHJpbnQt%d", i),
			Caption:      fmt.Sprintf("photo %d", i+1),
			SizeLabel:    fmt.Sprintf("%d.0 kB", i+1),
		})
	}
	return r
}

// AssertEqual compares persisted fields of two reports.
func AssertEqual(t testing.TB, got, want *report.Report) {
	t.Helper()
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if got.Metadata != want.Metadata {
		t.Fatalf("metadata mismatch:\n got %+v\nwant %+v", got.Metadata, want.Metadata)
	}
	if len(got.Photos) != len(want.Photos) {
		t.Fatalf("photo count = %d, want %d", len(got.Photos), len(want.Photos))
	}
	for i := range want.Photos {
		if got.Photos[i].Data() != want.Photos[i].Data() {
			t.Fatalf("photo %d mismatch:\n got %+v\nwant %+v", i, got.Photos[i].Data(), want.Photos[i].Data())
		}
	}
}

func open(t *testing.T, newStore Factory) storage.Store {
	t.Helper()
	store := newStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
