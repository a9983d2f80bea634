package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/schema"
)

// selectNext picks the routing target of an action after its command ran.
// A non-empty Conditional list is evaluated in declared order and the first
// checker returning true wins; when none does the action dead-ends, Next is
// not consulted. The zero Target means "no target".
func (r *run) selectNext(ctx context.Context, scope string, action *domain.Action, outcome domain.Outcome) (domain.Target, error) {
	if len(action.Conditional) == 0 {
		if action.Next != nil {
			return *action.Next, nil
		}
		return domain.Target{}, nil
	}

	for _, cond := range action.Conditional {
		checker, ok := r.engine.checkers.Find(cond.Checker)
		if !ok {
			return domain.Target{}, configErr(r.script.Name, scope, action.ID, "checker %q is not registered", cond.Checker)
		}

		inputs, err := resolveInputs(checker, cond, r.state)
		if err != nil {
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				return domain.Target{}, configErr(r.script.Name, scope, action.ID, "checker %q input: %v", cond.Checker, err)
			}
			return domain.Target{}, &CheckerError{Scope: scope, ActionID: action.ID, Checker: cond.Checker, Err: err}
		}

		matched, err := checker.Check(ctx, outcome, inputs)
		if err != nil {
			return domain.Target{}, &CheckerError{Scope: scope, ActionID: action.ID, Checker: cond.Checker, Err: err}
		}
		r.logger.Debug("Checker evaluated", "scope", domain.ScopeName(scope), "action_id", action.ID, "checker", cond.Checker, "matched", matched)
		if matched {
			return cond.Next, nil
		}
	}
	return domain.Target{}, nil
}
