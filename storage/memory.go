package storage

import (
	"context"
	"sync"

	authclient "github.com/goliatone/go-auth-client"
)

// Memory is an in process map. Values are lost on exit.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ authclient.Storage = (*Memory)(nil)

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
