package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Checkpoint
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Checkpoint),
	}
}

// Save persists the checkpoint in memory.
func (s *Store) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = clone(cp)
	return nil
}

// Load retrieves the checkpoint from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Copy on read so callers can't mutate the stored checkpoint by pointer
	return clone(cp), nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored sessions in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}

// channel values are shared: reducers never modify a value in place
func clone(cp *domain.Checkpoint) *domain.Checkpoint {
	copied := *cp
	copied.Values = cp.Values.Clone()
	return &copied
}
