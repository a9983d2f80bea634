package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/scriptor/pkg/domain"
)

// Combine fans every event out to each of hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnter: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnActionEnter != nil {
					h.OnActionEnter(ctx, e)
				}
			}
		},
		OnActionLeave: func(ctx context.Context, e *domain.ActionEvent) {
			for _, h := range hooks {
				if h.OnActionLeave != nil {
					h.OnActionLeave(ctx, e)
				}
			}
		},
		OnCommandCall: func(ctx context.Context, e *domain.CommandEvent) {
			for _, h := range hooks {
				if h.OnCommandCall != nil {
					h.OnCommandCall(ctx, e)
				}
			}
		},
		OnCommandReturn: func(ctx context.Context, e *domain.CommandEvent) {
			for _, h := range hooks {
				if h.OnCommandReturn != nil {
					h.OnCommandReturn(ctx, e)
				}
			}
		},
		OnProcedureEnter: func(ctx context.Context, e *domain.ProcedureEvent) {
			for _, h := range hooks {
				if h.OnProcedureEnter != nil {
					h.OnProcedureEnter(ctx, e)
				}
			}
		},
		OnProcedureReturn: func(ctx context.Context, e *domain.ProcedureEvent) {
			for _, h := range hooks {
				if h.OnProcedureReturn != nil {
					h.OnProcedureReturn(ctx, e)
				}
			}
		},
		OnFinally: func(ctx context.Context, e *domain.ProcedureEvent) {
			for _, h := range hooks {
				if h.OnFinally != nil {
					h.OnFinally(ctx, e)
				}
			}
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			for _, h := range hooks {
				if h.OnRunEnd != nil {
					h.OnRunEnd(ctx, e)
				}
			}
		},
	}
}

// LogHooks logs every event at Debug, and the end of each run at Info
// (Warn on timeout, Error on failure).
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnter: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action_enter",
				"run_id", e.RunID,
				"scope", domain.ScopeName(e.Scope),
				"action_id", e.ActionID,
				"command", e.Command,
			)
		},
		OnActionLeave: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action_leave",
				"run_id", e.RunID,
				"scope", domain.ScopeName(e.Scope),
				"action_id", e.ActionID,
				"next", e.Next.String(),
			)
		},
		OnCommandReturn: func(ctx context.Context, e *domain.CommandEvent) {
			attrs := []any{
				"run_id", e.RunID,
				"command", e.Command,
				"retry", e.Retry,
				"duration", e.Duration,
				"is_error", e.IsError,
			}
			if e.Outcome != nil {
				attrs = append(attrs, "success", e.Outcome.Success)
			}
			logger.DebugContext(ctx, "command_return", attrs...)
		},
		OnProcedureEnter: func(ctx context.Context, e *domain.ProcedureEvent) {
			logger.DebugContext(ctx, "procedure_enter", "run_id", e.RunID, "procedure", e.Procedure, "depth", e.Depth)
		},
		OnProcedureReturn: func(ctx context.Context, e *domain.ProcedureEvent) {
			logger.DebugContext(ctx, "procedure_return", "run_id", e.RunID, "procedure", e.Procedure, "return_action_id", e.ReturnActionID)
		},
		OnFinally: func(ctx context.Context, e *domain.ProcedureEvent) {
			logger.DebugContext(ctx, "finally", "run_id", e.RunID, "procedure", e.Procedure)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			attrs := []any{"run_id", e.RunID, "script", e.Script}
			if e.Report != nil {
				attrs = append(attrs, "steps", e.Report.Steps, "duration", e.Report.Duration)
			}
			switch {
			case e.Err == nil:
				logger.InfoContext(ctx, "run_end", attrs...)
			case errors.Is(e.Err, domain.ErrTimeout):
				logger.WarnContext(ctx, "run_end", append(attrs, "err", e.Err)...)
			default:
				logger.ErrorContext(ctx, "run_end", append(attrs, "err", e.Err)...)
			}
		},
	}
}
