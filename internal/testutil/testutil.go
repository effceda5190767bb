// Package testutil provides shared test helpers: an in-memory key-value
// store and filesystem scaffolding.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/ansuz/pkg/kv"
)

// MemKV is an in-memory key-value store tracking write counts per key. It
// satisfies the blog.Store interface.
type MemKV struct {
	mu   sync.Mutex
	data map[string][]byte
	puts map[string]int
}

// NewMemKV returns an empty store.
func NewMemKV() *MemKV {
	return &MemKV{
		data: make(map[string][]byte),
		puts: make(map[string]int),
	}
}

// Get returns the value stored at key, or (nil, nil) when absent.
func (m *MemKV) Get(_ context.Context, key string) (*kv.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return &kv.Pair{Key: key, Value: out}, nil
}

// Put stores value at key.
func (m *MemKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	m.puts[key]++
	return nil
}

// Delete removes key. Deleting an absent key succeeds.
func (m *MemKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Puts returns how many times key has been written.
func (m *MemKV) Puts(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts[key]
}

// Len returns the number of stored keys.
func (m *MemKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// WriteFile writes content to name under dir, creating parent directories,
// and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
