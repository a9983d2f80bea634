package ports

import (
	"context"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/schema"
)

// Command performs the side effect of an action.
// It may read and write the execution state. A returned error aborts the run;
// a failed Outcome does not.
type Command interface {
	Execute(ctx context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error)
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc func(ctx context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error)

// Execute calls f.
func (f CommandFunc) Execute(ctx context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	return f(ctx, action, state)
}

// CommandRegistry resolves command names.
type CommandRegistry interface {
	Find(name string) (Command, bool)
}

// InputSpec declares a named value a checker needs.
type InputSpec struct {
	Name string
	// Type validates the resolved value. Nil accepts anything.
	Type schema.Type
	// Default is used when neither the conditional nor the state provides the input.
	// A string starting with "$" is resolved as a state path.
	Default any
}

// Checker is a predicate evaluated against the last command outcome.
type Checker interface {
	Inputs() []InputSpec
	Check(ctx context.Context, outcome domain.Outcome, inputs map[string]any) (bool, error)
}

// CheckerRegistry resolves checker names case-insensitively.
type CheckerRegistry interface {
	Find(name string) (Checker, bool)
}
