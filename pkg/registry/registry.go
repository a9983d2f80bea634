// Package registry provides thread-safe name lookups for commands and checkers.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
)

type table[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	key   func(string) string
}

func newTable[T any](key func(string) string) table[T] {
	return table[T]{items: make(map[string]T), key: key}
}

func (t *table[T]) put(name string, item T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[t.key(name)] = item
}

func (t *table[T]) get(name string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[t.key(name)]
	return item, ok
}

func (t *table[T]) names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.items))
	for name := range t.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Commands manages the available commands. Names are case-sensitive.
type Commands struct {
	t table[ports.Command]
}

// NewCommands creates an empty command registry.
func NewCommands() *Commands {
	return &Commands{t: newTable[ports.Command](func(s string) string { return s })}
}

// Register adds a command. If a command with the same name exists, it is overwritten.
func (r *Commands) Register(name string, cmd ports.Command) {
	r.t.put(name, cmd)
}

// RegisterFunc adds a function as a command.
func (r *Commands) RegisterFunc(name string, fn func(context.Context, *domain.Action, *domain.ExecutionState) (domain.Outcome, error)) {
	r.t.put(name, ports.CommandFunc(fn))
}

// Find implements ports.CommandRegistry.
func (r *Commands) Find(name string) (ports.Command, bool) {
	return r.t.get(name)
}

// Names returns the registered command names in lexical order.
func (r *Commands) Names() []string {
	return r.t.names()
}

// Checkers manages the available checkers. Lookups ignore case.
type Checkers struct {
	t table[ports.Checker]
}

// NewCheckers creates an empty checker registry.
func NewCheckers() *Checkers {
	return &Checkers{t: newTable[ports.Checker](strings.ToLower)}
}

// Register adds a checker, overwriting any checker whose name differs only by case.
func (r *Checkers) Register(name string, c ports.Checker) {
	r.t.put(name, c)
}

// Find implements ports.CheckerRegistry.
func (r *Checkers) Find(name string) (ports.Checker, bool) {
	return r.t.get(name)
}

// Names returns the registered checker names, lower-cased, in lexical order.
func (r *Checkers) Names() []string {
	return r.t.names()
}

var (
	_ ports.CommandRegistry = (*Commands)(nil)
	_ ports.CheckerRegistry = (*Checkers)(nil)
)
