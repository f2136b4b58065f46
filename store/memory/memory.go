package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zlnvch/homegate/store"
)

// MemoryRecordStore is an ordered in-memory implementation of the record
// store, used by tests and local development. Single-key operations and
// BatchDelete are atomic under one mutex.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string][]byte)}
}

func (m *MemoryRecordStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.records[key] = cp
	return nil
}

func (m *MemoryRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (m *MemoryRecordStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *MemoryRecordStore) ScanRange(ctx context.Context, low string, high string, fn func(key string, value []byte) (bool, error)) error {
	// Snapshot the range under the read lock so fn can issue writes
	// against the store without deadlocking.
	m.mu.RLock()
	keys := make([]string, 0, len(m.records))
	for key := range m.records {
		if key > low && key < high {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = m.records[key]
	}
	m.mu.RUnlock()

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		stop, err := fn(key, values[i])
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (m *MemoryRecordStore) BatchDelete(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.records, key)
	}
	return nil
}

// Len reports the number of live records, for tests.
func (m *MemoryRecordStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
