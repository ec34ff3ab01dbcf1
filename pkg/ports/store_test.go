package ports_test

import (
	"context"
	"maps"
	"sync"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/ports/tests"
)

// MockStore is a minimal StateStore used to check the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Checkpoint
}

var _ ports.StateStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Checkpoint)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *cp
	copied.Values = cp.Values.Clone()
	m.data[sessionID] = copied
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp.Values = cp.Values.Clone()
	return &cp, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range maps.Keys(m.data) {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestMockStore_Contract(t *testing.T) {
	tests.RunStateStoreContract(t, NewMockStore())
}
