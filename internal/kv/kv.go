// Package kv provides the client-local key-value store the chart persists
// its state into (trend lines, signal visibility). The interface is small on
// purpose so a different backing store can be substituted without touching
// the callers.
package kv

import "sync"

// Store is a string-keyed store with last-write-wins semantics.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key does not exist.
	Get(key string) (string, bool, error)
	// Set writes the value for key, overwriting any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string) error
	// Close releases the store. Close is idempotent.
	Close() error
}

// Memory is an in-process Store used by tests and ephemeral sessions.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]

	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}

// Delete implements Store.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)

	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
