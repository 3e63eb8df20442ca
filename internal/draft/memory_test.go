package draft_test

import (
	"context"
	"errors"
	"sync"

	"studio/internal/draft"
)

type memoryStore struct {
	mu      sync.Mutex
	drafts  map[string]draft.Snapshot
	saveErr error
	loadErr error
	clears  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{drafts: make(map[string]draft.Snapshot)}
}

func (s *memoryStore) SaveDraft(_ context.Context, project string, snap draft.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.drafts[project] = snap
	return nil
}

func (s *memoryStore) LoadDraft(_ context.Context, project string) (draft.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return draft.Snapshot{}, s.loadErr
	}
	snap, ok := s.drafts[project]
	if !ok {
		return draft.Snapshot{}, draft.ErrNoDraft
	}
	return snap, nil
}

func (s *memoryStore) ClearDraft(_ context.Context, project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	delete(s.drafts, project)
	return nil
}

var errDisk = errors.New("disk full")
