package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/ports/tests"
)

// mockStore is the smallest ProfileStore that satisfies the contract.
type mockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Profile
}

func (m *mockStore) Save(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.ID] = p.Clone()
	return nil
}

func (m *mockStore) Load(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ ports.ProfileStore = (*mockStore)(nil)

func TestProfileStore_Contract(t *testing.T) {
	tests.ProfileStoreContract(t, &mockStore{data: make(map[string]*domain.Profile)})
}

func TestCommandFunc(t *testing.T) {
	var cmd ports.Command = ports.CommandFunc(func(_ context.Context, a *domain.Action, s *domain.ExecutionState) (domain.Outcome, error) {
		s.Set("seen", a.ID)
		return domain.Succeeded(nil), nil
	})

	state := domain.NewExecutionState(nil)
	out, err := cmd.Execute(context.Background(), &domain.Action{ID: 9}, state)
	if err != nil || !out.Success {
		t.Fatalf("unexpected result %+v, %v", out, err)
	}
	if state.Variables["seen"] != 9 {
		t.Errorf("command did not mutate state: %v", state.Variables)
	}
}
