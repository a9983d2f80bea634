package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/scriptor/pkg/domain"
)

// Loader implements ports.ScriptLoader over scripts held in memory.
// Safe for concurrent use.
type Loader struct {
	mu      sync.RWMutex
	scripts map[string]*domain.Script
}

// NewLoader creates a loader serving the given scripts, keyed by Name.
func NewLoader(scripts ...*domain.Script) (*Loader, error) {
	l := &Loader{scripts: make(map[string]*domain.Script, len(scripts))}
	for _, s := range scripts {
		if err := l.Add(s); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers or replaces a script.
func (l *Loader) Add(s *domain.Script) error {
	if s == nil || s.Name == "" {
		return fmt.Errorf("script missing name")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scripts[s.Name] = s
	return nil
}

// Load returns the script registered under name.
func (l *Loader) Load(_ context.Context, name string) (*domain.Script, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.scripts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, name)
	}
	return s, nil
}

// List returns all script names in lexical order.
func (l *Loader) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.scripts))
	for name := range l.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
