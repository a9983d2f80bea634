package dsl

import "github.com/aretw0/scriptor/pkg/domain"

// ActionBuilder provides a fluent API for configuring an action.
type ActionBuilder struct {
	action domain.Action
}

// Entry marks the action as the entry point of its scope.
func (a *ActionBuilder) Entry() *ActionBuilder {
	a.action.EntryPoint = true
	return a
}

// Do sets the command and its params.
func (a *ActionBuilder) Do(command string, params map[string]any) *ActionBuilder {
	a.action.Command = command
	a.action.Params = params
	return a
}

// Param sets a single command param.
func (a *ActionBuilder) Param(key string, value any) *ActionBuilder {
	if a.action.Params == nil {
		a.action.Params = make(map[string]any)
	}
	a.action.Params[key] = value
	return a
}

// Next sets the unconditional transition.
func (a *ActionBuilder) Next(target domain.Target) *ActionBuilder {
	a.action.Next = &target
	return a
}

// When appends a conditional transition. Entries are evaluated in the order
// they are added.
func (a *ActionBuilder) When(checker string, target domain.Target) *ActionBuilder {
	return a.WhenWith(checker, nil, target)
}

// WhenWith appends a conditional transition with checker inputs.
func (a *ActionBuilder) WhenWith(checker string, inputs map[string]any, target domain.Target) *ActionBuilder {
	a.action.Conditional = append(a.action.Conditional, domain.Conditional{
		Checker: checker,
		Inputs:  inputs,
		Next:    target,
	})
	return a
}

// Build returns the underlying domain.Action.
func (a *ActionBuilder) Build() domain.Action {
	return a.action
}
