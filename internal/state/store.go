package state

import (
	"errors"
	"sync"
)

// ErrClosed is returned by write operations on a store that has been closed.
var ErrClosed = errors.New("store is closed")

// Store is the key-value persistence primitive every other component builds on.
// All methods must be thread-safe. Concurrent writes to the same key are
// last-write-wins; there is no key-level locking.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent or the backing medium failed the read; implementations log read
	// failures rather than returning them.
	Get(key string) (value string, ok bool)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore is a thread-safe in-memory implementation of Store.
// It is used directly when no database path is configured and as the
// fallback when the SQLite backend cannot be opened.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewMemoryStore creates a new empty MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get returns the value stored under key.
func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	v, ok := ms.values[key]
	return v, ok
}

// Set stores value under key.
func (ms *MemoryStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrClosed
	}
	ms.values[key] = value
	return nil
}

// Delete removes key from the store.
func (ms *MemoryStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrClosed
	}
	delete(ms.values, key)
	return nil
}

// Load replaces the entire contents of the store. It is used to warm the
// cache of a persistent backend at startup.
func (ms *MemoryStore) Load(values map[string]string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.values = make(map[string]string, len(values))
	for k, v := range values {
		ms.values[k] = v
	}
}

// Close marks the store as closed. Reads keep working; writes fail with ErrClosed.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = true
	return nil
}
