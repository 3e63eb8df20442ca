package registry

import (
	"context"
	"sync"
)

// MemoryStore is an in-process SessionStore. It copies on every read and
// write so callers cannot mutate the stored set.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Task
	saves    int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Task)}
}

func (m *MemoryStore) LoadTasks(_ context.Context, sessionID string) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Task(nil), m.sessions[sessionID]...), nil
}

func (m *MemoryStore) SaveTasks(_ context.Context, sessionID string, tasks []Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append([]Task(nil), tasks...)
	m.saves++
	return nil
}

// Saves reports how many times SaveTasks has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
