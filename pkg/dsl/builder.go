package dsl

import (
	"fmt"
	"time"

	"github.com/aretw0/scriptor/pkg/adapters/memory"
	"github.com/aretw0/scriptor/pkg/domain"
)

// To targets an action of the current scope.
func To(id int) domain.Target { return domain.ActionTarget(id) }

// Call targets a procedure.
func Call(name string) domain.Target { return domain.ProcedureTarget(name) }

// Builder manages the script construction.
type Builder struct {
	script     domain.Script
	main       *ScopeBuilder
	procedures map[string]*ScopeBuilder
	order      []string
}

// New creates a new script builder.
func New(name string) *Builder {
	b := &Builder{
		script:     domain.Script{Name: name},
		procedures: make(map[string]*ScopeBuilder),
	}
	b.main = &ScopeBuilder{builder: b, index: make(map[int]*ActionBuilder)}
	return b
}

// Describe sets the script description.
func (b *Builder) Describe(text string) *Builder {
	b.script.Description = text
	return b
}

// Timeout sets the maximum execution time of a run.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.script.MaxExecutionTime = domain.Duration(d)
	return b
}

// Finally names the procedure run once after the main flow ends.
func (b *Builder) Finally(procedure string) *Builder {
	b.script.Finally = procedure
	return b
}

// Action returns the builder of a top-level action, creating it on first use.
func (b *Builder) Action(id int) *ActionBuilder {
	return b.main.Action(id)
}

// Procedure returns the builder of a procedure scope, creating it on first use.
func (b *Builder) Procedure(name string) *ScopeBuilder {
	if sb, ok := b.procedures[name]; ok {
		return sb
	}
	sb := &ScopeBuilder{builder: b, index: make(map[int]*ActionBuilder)}
	b.procedures[name] = sb
	b.order = append(b.order, name)
	return sb
}

// Build returns the script. It checks only what the builder can know
// locally: a name and at least one top-level action.
func (b *Builder) Build() (*domain.Script, error) {
	if b.script.Name == "" {
		return nil, fmt.Errorf("script name cannot be empty")
	}
	if len(b.main.actions) == 0 {
		return nil, fmt.Errorf("script %s has no actions", b.script.Name)
	}

	script := b.script
	script.Actions = b.main.build()
	if len(b.order) > 0 {
		script.Procedures = make(map[string][]domain.Action, len(b.order))
		for _, name := range b.order {
			script.Procedures[name] = b.procedures[name].build()
		}
	}
	return &script, nil
}

// Loader builds every script into an in-memory loader.
func Loader(builders ...*Builder) (*memory.Loader, error) {
	scripts := make([]*domain.Script, 0, len(builders))
	for _, b := range builders {
		s, err := b.Build()
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	loader, err := memory.NewLoader(scripts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// ScopeBuilder collects the actions of one scope in declaration order.
type ScopeBuilder struct {
	builder *Builder
	actions []*ActionBuilder
	index   map[int]*ActionBuilder
}

// Action returns the builder for id, creating it on first use.
func (s *ScopeBuilder) Action(id int) *ActionBuilder {
	if ab, ok := s.index[id]; ok {
		return ab
	}
	ab := &ActionBuilder{action: domain.Action{ID: id}}
	s.index[id] = ab
	s.actions = append(s.actions, ab)
	return ab
}

func (s *ScopeBuilder) build() []domain.Action {
	out := make([]domain.Action, 0, len(s.actions))
	for _, ab := range s.actions {
		out = append(out, ab.Build())
	}
	return out
}
