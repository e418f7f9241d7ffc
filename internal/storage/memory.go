package storage

import (
	"context"
	"errors"
	"sync"

	"photoreport/internal/report"
)

var errMemoryClosed = errors.New("memory store closed")

// MemoryStore keeps encoded reports in a map. A positive quota caps the total
// encoded bytes across all keys.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	quota  int64
	closed bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), quota: quotaBytes}
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, key string, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeReport(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errMemoryClosed
	}
	if m.quota > 0 {
		used := int64(0)
		for k, v := range m.data {
			if k != key {
				used += int64(len(v))
			}
		}
		if used+int64(len(payload)) > m.quota {
			return fullError(key, "memory quota exceeded", nil)
		}
	}
	m.data[key] = payload
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, key string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	payload, ok := m.data[key]
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, errMemoryClosed
	}
	if !ok {
		return nil, nil
	}
	return decodeReport(payload)
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
