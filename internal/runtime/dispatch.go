package runtime

import (
	"context"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
)

// dispatch runs the command bound to action. Consecutive dispatches of the
// same action (scope and id) increment the state's retry counter; any other
// action resets it.
func (r *run) dispatch(ctx context.Context, scope string, action *domain.Action) (domain.Outcome, error) {
	cmd, ok := r.engine.commands.Find(action.Command)
	if !ok {
		return domain.Outcome{}, configErr(r.script.Name, scope, action.ID, "command %q is not registered", action.Command)
	}

	if r.hasLast && r.lastScope == scope && r.lastID == action.ID {
		r.state.RetryCount++
	} else {
		r.state.RetryCount = 0
	}
	r.hasLast, r.lastScope, r.lastID = true, scope, action.ID

	r.emitCommandCall(ctx, scope, action)
	start := time.Now()
	outcome, err := cmd.Execute(ctx, action, r.state)
	r.emitCommandReturn(ctx, scope, action, outcome, time.Since(start), err)

	if err != nil {
		return domain.Outcome{}, &CommandError{Scope: scope, ActionID: action.ID, Command: action.Command, Err: err}
	}
	return outcome, nil
}
