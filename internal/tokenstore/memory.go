package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore хранит значения в памяти процесса.
type MemoryStore struct {
	mu        sync.RWMutex
	token     string
	profileID string
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) ClearToken(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *MemoryStore) ProfileID(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profileID, nil
}

func (m *MemoryStore) SetProfileID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileID = id
	return nil
}
