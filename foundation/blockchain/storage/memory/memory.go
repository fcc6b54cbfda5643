// Package memory implements the durable store in memory using a map. A
// single Memory value can be shared by several execution contexts in the
// same process and is also used as the per-context session store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
)

// Memory represents the storage implementation for reading and storing
// documents in memory using a map. This implements the storage.Store
// interface.
type Memory struct {
	storage.Watchers
	mu   sync.RWMutex
	data map[string][]byte
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

// Close releases any watchers. The data stays readable.
func (m *Memory) Close() error {
	m.CloseAll()
	return nil
}

// Get returns a copy of the document stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

// Set replaces the document stored under key and notifies watchers.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()

	m.Notify(key)
	return nil
}

// Delete removes the key and notifies watchers if it existed.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	_, exists := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if exists {
		m.Notify(key)
	}
	return nil
}

// Keys returns the sorted set of keys currently stored.
func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}
