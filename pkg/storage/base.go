// Package storage provides the persistence boundary for the memory engine.
//
// The engine never writes to disk directly: it serializes its state to byte
// payloads and hands them to a SecureStore. Encryption at rest, file layout,
// and platform keychains are the store implementation's concern.
//
// Implementations are provided for SQLite (on-device default), PostgreSQL,
// and MySQL, plus an in-memory store for tests.
package storage

import (
	"context"
	"sync"
)

// SecureStore is a key-value blob store for persisted engine state.
//
// All implementations must satisfy these semantics:
//   - Store overwrites any existing value for the key.
//   - Retrieve returns (nil, nil) for a missing key; absence is not an error.
//   - Delete of a missing key is a no-op.
type SecureStore interface {
	// Store persists data under key, replacing any previous value.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the data stored under key, or (nil, nil) if the key
	// does not exist.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value stored under key, if any.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore is an in-memory SecureStore used in tests and as a fallback
// when no durable backend is configured. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Store persists data under key.
func (m *MemoryStore) Store(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.data[key] = buf
	return nil
}

// Retrieve returns the data stored under key, or (nil, nil) when missing.
func (m *MemoryStore) Retrieve(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the value stored under key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
