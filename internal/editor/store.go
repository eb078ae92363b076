package editor

import (
	"context"
	"fmt"
	"sync"

	"thumbgen/internal/domain"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = fmt.Errorf("%w: session", domain.ErrNotFound)

// Store persists session snapshots.
type Store interface {
	Save(ctx context.Context, st SessionState) error
	Load(ctx context.Context, id string) (SessionState, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]SessionState)}
}

func (s *MemoryStore) Save(_ context.Context, st SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return SessionState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return st, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
