package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/schema"
)

// ValidateScript reports every configuration problem of a script before it
// runs: entry points, duplicate ids, unregistered commands and checkers,
// unresolvable targets and literal checker inputs of the wrong type.
// The result joins one *ConfigError per problem.
func ValidateScript(script *domain.Script, commands ports.CommandRegistry, checkers ports.CheckerRegistry) error {
	if script == nil {
		return fmt.Errorf("%w: script is nil", domain.ErrInvalidScript)
	}

	v := &scriptValidator{script: script, commands: commands, checkers: checkers}

	v.validateList(domain.MainScope, script.Actions)
	for _, name := range script.ProcedureNames() {
		v.validateList(name, script.Procedures[name])
	}

	if script.Finally != "" && !script.HasProcedure(script.Finally) {
		v.add(configErr(script.Name, domain.MainScope, noAction, "finally procedure %q is not declared", script.Finally))
	}
	if script.MaxExecutionTime < 0 {
		v.add(configErr(script.Name, domain.MainScope, noAction, "max execution time cannot be negative"))
	}

	return errors.Join(v.errs...)
}

type scriptValidator struct {
	script   *domain.Script
	commands ports.CommandRegistry
	checkers ports.CheckerRegistry
	errs     []error
}

func (v *scriptValidator) add(err *ConfigError) {
	v.errs = append(v.errs, err)
}

func (v *scriptValidator) validateList(scope string, actions []domain.Action) {
	name := v.script.Name

	entries := 0
	seen := make(map[int]bool, len(actions))
	for _, a := range actions {
		if a.EntryPoint {
			entries++
		}
		if seen[a.ID] {
			v.add(configErr(name, scope, a.ID, "duplicate action id"))
		}
		seen[a.ID] = true
	}
	switch {
	case entries == 0:
		v.add(configErr(name, scope, noAction, "no entry point"))
	case entries > 1:
		v.add(configErr(name, scope, noAction, "%d entry points, expected exactly one", entries))
	}

	for i := range actions {
		v.validateAction(scope, actions, &actions[i])
	}
}

func (v *scriptValidator) validateAction(scope string, actions []domain.Action, a *domain.Action) {
	name := v.script.Name

	if a.Command == "" {
		v.add(configErr(name, scope, a.ID, "no command"))
	} else if v.commands == nil {
		v.add(configErr(name, scope, a.ID, "command %q is not registered", a.Command))
	} else if _, ok := v.commands.Find(a.Command); !ok {
		v.add(configErr(name, scope, a.ID, "command %q is not registered", a.Command))
	}

	if len(a.Conditional) == 0 {
		if a.Next != nil {
			v.validateTarget(scope, actions, a.ID, *a.Next)
		}
		return
	}

	for i, cond := range a.Conditional {
		if cond.Next.IsZero() {
			v.add(configErr(name, scope, a.ID, "conditional %d has no target", i))
		} else {
			v.validateTarget(scope, actions, a.ID, cond.Next)
		}

		checker, ok := v.findChecker(cond.Checker)
		if !ok {
			v.add(configErr(name, scope, a.ID, "checker %q is not registered", cond.Checker))
			continue
		}
		v.validateLiteralInputs(scope, a.ID, cond, checker)
	}
}

func (v *scriptValidator) findChecker(name string) (ports.Checker, bool) {
	if name == "" || v.checkers == nil {
		return nil, false
	}
	return v.checkers.Find(name)
}

func (v *scriptValidator) validateTarget(scope string, actions []domain.Action, from int, t domain.Target) {
	switch {
	case t.IsAction():
		if _, ok := domain.FindAction(actions, t.ActionID()); !ok {
			v.add(configErr(v.script.Name, scope, from, "target action %d does not exist in scope %s", t.ActionID(), domain.ScopeName(scope)))
		}
	case t.IsProcedure():
		if !v.script.HasProcedure(t.Procedure()) {
			v.add(configErr(v.script.Name, scope, from, "target procedure %q is not declared", t.Procedure()))
		}
	}
}

// validateLiteralInputs type-checks the inputs whose value is known before the
// run. Path inputs are checked when they are resolved.
func (v *scriptValidator) validateLiteralInputs(scope string, actionID int, cond domain.Conditional, checker ports.Checker) {
	for _, spec := range checker.Inputs() {
		raw, ok := cond.Inputs[spec.Name]
		if !ok {
			continue
		}
		if s, isStr := raw.(string); isStr && strings.HasPrefix(s, pathPrefix) && !strings.HasPrefix(s, escapedPrefix) {
			continue
		}
		if err := schema.ValidateValue(spec.Name, spec.Type, unescape(raw), true); err != nil {
			v.add(configErr(v.script.Name, scope, actionID, "checker %q input: %v", cond.Checker, err))
		}
	}
}
