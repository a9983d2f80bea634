package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/scriptor/pkg/domain"
)

// run is the state of a single script execution. It is owned by the loop
// goroutine; only the counters are read by the supervisor.
type run struct {
	engine *Engine
	script *domain.Script
	state  *domain.ExecutionState
	id     string
	logger *slog.Logger

	stack          callStack
	runningFinally bool

	hasLast   bool
	lastScope string
	lastID    int

	steps      atomic.Int64
	maxDepth   atomic.Int64
	finallyRan atomic.Bool
}

// loop drives the script until routing runs out. Procedure calls and the
// finally path are frames on an explicit stack, so nesting never grows the Go
// stack and cancellation is checked at every step.
func (r *run) loop(ctx context.Context) error {
	scope := domain.MainScope
	actions := r.script.Actions
	current, ok := domain.EntryPoint(actions)
	if !ok {
		return configErr(r.script.Name, scope, noAction, "no entry point")
	}

	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		r.steps.Add(1)

		r.logger.Debug("Dispatching action", "scope", domain.ScopeName(scope), "action_id", current.ID, "command", current.Command, "depth", r.stack.depth())
		r.emitActionEnter(ctx, scope, current)

		outcome, err := r.dispatch(ctx, scope, current)
		if err != nil {
			return err
		}
		target, err := r.selectNext(ctx, scope, current, outcome)
		if err != nil {
			return err
		}
		r.emitActionLeave(ctx, scope, current, target)

		switch {
		case target.IsAction():
			next, ok := domain.FindAction(actions, target.ActionID())
			if !ok {
				return configErr(r.script.Name, scope, current.ID, "target action %d does not exist in scope %s", target.ActionID(), domain.ScopeName(scope))
			}
			current = next

		case target.IsProcedure():
			name := target.Procedure()
			if r.stack.depth() >= r.engine.maxCallDepth {
				return fmt.Errorf("%w: calling %q from %s action %d at depth %d", domain.ErrCallDepthExceeded, name, domain.ScopeName(scope), current.ID, r.stack.depth())
			}
			procActions, entry, err := r.enter(scope, current.ID, name)
			if err != nil {
				return err
			}
			r.stack.push(domain.Frame{Procedure: name, ReturnActionID: current.ID})
			r.trackDepth()
			r.emitProcedure(ctx, domain.EventProcedureEnter, name, current.ID)

			scope, actions, current = name, procActions, entry

		case r.stack.depth() > 0 && !r.runningFinally:
			frame, _ := r.stack.pop()
			scope = r.stack.scope()
			actions, _ = r.script.ActionsFor(scope)
			back, ok := domain.FindAction(actions, frame.ReturnActionID)
			if !ok {
				return configErr(r.script.Name, scope, frame.ReturnActionID, "return action does not exist in scope %s", domain.ScopeName(scope))
			}
			r.emitProcedure(ctx, domain.EventProcedureReturn, frame.Procedure, frame.ReturnActionID)
			current = back

		case r.stack.depth() == 0 && !r.runningFinally && r.script.Finally != "":
			name := r.script.Finally
			procActions, entry, err := r.enter(scope, current.ID, name)
			if err != nil {
				return err
			}
			r.runningFinally = true
			r.finallyRan.Store(true)
			r.stack.push(domain.Frame{Procedure: name, ReturnActionID: current.ID, Finally: true})
			r.trackDepth()
			r.logger.Debug("Entering finally", "procedure", name)
			r.emitProcedure(ctx, domain.EventFinally, name, current.ID)

			scope, actions, current = name, procActions, entry

		default:
			return nil
		}
	}
}

// enter resolves a procedure's action list and entry point.
func (r *run) enter(fromScope string, fromID int, name string) ([]domain.Action, *domain.Action, error) {
	actions, ok := r.script.Procedures[name]
	if !ok {
		return nil, nil, configErr(r.script.Name, fromScope, fromID, "target procedure %q is not declared", name)
	}
	entry, ok := domain.EntryPoint(actions)
	if !ok {
		return nil, nil, configErr(r.script.Name, name, noAction, "no entry point")
	}
	return actions, entry, nil
}

func (r *run) trackDepth() {
	if d := int64(r.stack.depth()); d > r.maxDepth.Load() {
		r.maxDepth.Store(d)
	}
}
