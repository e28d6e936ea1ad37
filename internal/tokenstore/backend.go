package tokenstore

import (
	"context"
	"sync"
)

// Entry names used by every backend. They match the keys the web client
// keeps in browser storage.
const (
	EntryAccess  = "access_token"
	EntryRefresh = "refresh_token"
)

// Backend is durable key-value storage for named credential entries.
type Backend interface {
	// Read returns the entry value and whether it exists.
	Read(ctx context.Context, name string) (string, bool, error)
	// Write creates or replaces an entry.
	Write(ctx context.Context, name, value string) error
	// Remove deletes an entry. Removing a missing entry is not an error.
	Remove(ctx context.Context, name string) error
}

// MemoryBackend keeps entries in process memory only.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

func (b *MemoryBackend) Read(_ context.Context, name string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.entries[name]
	return v, ok, nil
}

func (b *MemoryBackend) Write(_ context.Context, name, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[name] = value
	return nil
}

func (b *MemoryBackend) Remove(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, name)
	return nil
}
