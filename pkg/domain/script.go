package domain

import (
	"sort"
	"time"
)

// Script is the immutable description of a workflow.
type Script struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// Actions is the top-level flow.
	Actions []Action `json:"actions" yaml:"actions" mapstructure:"actions"`

	// Procedures maps a procedure name to its own, separately scoped action list.
	Procedures map[string][]Action `json:"procedures,omitempty" yaml:"procedures,omitempty" mapstructure:"procedures"`

	// Finally optionally names a procedure run once after the top-level flow dead-ends.
	Finally string `json:"finally,omitempty" yaml:"finally,omitempty" mapstructure:"finally"`

	// MaxExecutionTime bounds the whole run. Zero disables the deadline.
	MaxExecutionTime Duration `json:"max_execution_time,omitempty" yaml:"max_execution_time,omitempty" mapstructure:"max_execution_time"`
}

// Action is a single step of a flow.
type Action struct {
	ID         int  `json:"id" yaml:"id" mapstructure:"id"`
	EntryPoint bool `json:"entry_point,omitempty" yaml:"entry_point,omitempty" mapstructure:"entry_point"`

	// Command is the name of a registered command.
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	// Params are handed to the command untouched.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	// Next is the unconditional transition, ignored when Conditional is set.
	Next *Target `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`

	// Conditional is evaluated in declared order; the first match wins.
	Conditional []Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty" mapstructure:"conditional"`
}

// Conditional pairs a checker with the target taken when it returns true.
type Conditional struct {
	Checker string         `json:"checker" yaml:"checker" mapstructure:"checker"`
	Inputs  map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`
	Next    Target         `json:"next" yaml:"next" mapstructure:"next"`
}

// Frame records a procedure invocation so the run can return to its call site.
type Frame struct {
	Procedure      string `json:"procedure"`
	ReturnActionID int    `json:"return_action_id"`
	// Finally marks the frame pushed when the finally procedure starts.
	// It is never popped.
	Finally bool `json:"finally,omitempty"`
}

// Timeout returns MaxExecutionTime as a time.Duration.
func (s *Script) Timeout() time.Duration {
	return s.MaxExecutionTime.Std()
}

// ActionsFor returns the action list of a scope: MainScope for the top-level
// flow, or a procedure name.
func (s *Script) ActionsFor(scope string) ([]Action, bool) {
	if scope == MainScope {
		return s.Actions, true
	}
	actions, ok := s.Procedures[scope]
	return actions, ok
}

// HasProcedure reports whether name is declared in the procedure table.
func (s *Script) HasProcedure(name string) bool {
	_, ok := s.Procedures[name]
	return ok
}

// ProcedureNames returns the declared procedure names in lexical order.
func (s *Script) ProcedureNames() []string {
	names := make([]string, 0, len(s.Procedures))
	for name := range s.Procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindAction looks up an action by id. Ids are only unique within their own list.
func FindAction(actions []Action, id int) (*Action, bool) {
	for i := range actions {
		if actions[i].ID == id {
			return &actions[i], true
		}
	}
	return nil, false
}

// EntryPoint returns the first action flagged as entry point.
func EntryPoint(actions []Action) (*Action, bool) {
	for i := range actions {
		if actions[i].EntryPoint {
			return &actions[i], true
		}
	}
	return nil, false
}

// ScopeName renders a scope for logs and error messages.
func ScopeName(scope string) string {
	if scope == MainScope {
		return "main"
	}
	return scope
}
