package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
)

// Store implements ports.ProfileStore in memory.
// Profiles are deep-copied on the way in and out, like a serializing store.
type Store struct {
	data map[string]*domain.Profile
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Profile),
	}
}

// Save persists a copy of the profile.
func (s *Store) Save(_ context.Context, p *domain.Profile) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("profile id cannot be empty")
	}
	c := p.Clone()
	c.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p.ID] = c
	return nil
}

// Load returns a copy of the stored profile.
func (s *Store) Load(_ context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

// Delete removes the profile.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns all profile ids in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
