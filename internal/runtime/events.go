package runtime

import (
	"context"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
)

func (r *run) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		RunID:     r.id,
		Script:    r.script.Name,
	}
}

func (r *run) emitActionEnter(ctx context.Context, scope string, a *domain.Action) {
	if r.engine.hooks.OnActionEnter == nil {
		return
	}
	r.engine.hooks.OnActionEnter(ctx, &domain.ActionEvent{
		EventBase: r.base(domain.EventActionEnter),
		Scope:     scope,
		ActionID:  a.ID,
		Command:   a.Command,
	})
}

func (r *run) emitActionLeave(ctx context.Context, scope string, a *domain.Action, next domain.Target) {
	if r.engine.hooks.OnActionLeave == nil {
		return
	}
	r.engine.hooks.OnActionLeave(ctx, &domain.ActionEvent{
		EventBase: r.base(domain.EventActionLeave),
		Scope:     scope,
		ActionID:  a.ID,
		Command:   a.Command,
		Next:      next,
	})
}

func (r *run) emitCommandCall(ctx context.Context, scope string, a *domain.Action) {
	if r.engine.hooks.OnCommandCall == nil {
		return
	}
	r.engine.hooks.OnCommandCall(ctx, &domain.CommandEvent{
		EventBase: r.base(domain.EventCommandCall),
		Scope:     scope,
		ActionID:  a.ID,
		Command:   a.Command,
		Retry:     r.state.RetryCount,
	})
}

func (r *run) emitCommandReturn(ctx context.Context, scope string, a *domain.Action, outcome domain.Outcome, took time.Duration, err error) {
	if r.engine.hooks.OnCommandReturn == nil {
		return
	}
	ev := &domain.CommandEvent{
		EventBase: r.base(domain.EventCommandReturn),
		Scope:     scope,
		ActionID:  a.ID,
		Command:   a.Command,
		Retry:     r.state.RetryCount,
		Duration:  took,
		IsError:   err != nil,
	}
	if err == nil {
		ev.Outcome = &outcome
	}
	r.engine.hooks.OnCommandReturn(ctx, ev)
}

func (r *run) emitProcedure(ctx context.Context, t domain.EventType, name string, returnID int) {
	var hook func(context.Context, *domain.ProcedureEvent)
	switch t {
	case domain.EventProcedureEnter:
		hook = r.engine.hooks.OnProcedureEnter
	case domain.EventProcedureReturn:
		hook = r.engine.hooks.OnProcedureReturn
	case domain.EventFinally:
		hook = r.engine.hooks.OnFinally
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.ProcedureEvent{
		EventBase:      r.base(t),
		Procedure:      name,
		ReturnActionID: returnID,
		Depth:          r.stack.depth(),
	})
}

func (r *run) emitRunEnd(ctx context.Context, report *domain.Report, err error) {
	if r.engine.hooks.OnRunEnd == nil {
		return
	}
	r.engine.hooks.OnRunEnd(ctx, &domain.RunEvent{
		EventBase: r.base(domain.EventRunEnd),
		Report:    report,
		Err:       err,
	})
}
