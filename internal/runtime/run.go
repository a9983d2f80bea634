package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/google/uuid"
)

// Run validates script and executes it against profile.
func (e *Engine) Run(ctx context.Context, script *domain.Script, profile any) (*domain.Report, error) {
	return e.RunState(ctx, script, domain.NewExecutionState(profile))
}

// RunState executes script with a caller prepared state, e.g. seeded variables.
//
// The loop runs on its own goroutine and is raced against the script's
// MaxExecutionTime. When the deadline fires first the result is a
// *TimeoutError: commands receive the cancelled context and the loop stops at
// its next step. RunState still waits for the in-flight step to return, so
// the state and profile are no longer touched once it returns.
func (e *Engine) RunState(ctx context.Context, script *domain.Script, state *domain.ExecutionState) (*domain.Report, error) {
	if err := e.Validate(script); err != nil {
		return nil, err
	}
	if state == nil {
		state = domain.NewExecutionState(nil)
	}
	if state.Variables == nil {
		state.Variables = make(map[string]any)
	}

	r := &run{
		engine: e,
		script: script,
		state:  state,
		id:     uuid.NewString(),
	}
	r.logger = e.logger.With("run_id", r.id, "script", script.Name)

	runCtx, cancel := withDeadline(ctx, script.Timeout())
	defer cancel()

	started := time.Now()
	r.logger.Info("Script started", "max_execution_time", script.Timeout())

	done := make(chan error, 1)
	go func() {
		done <- r.loop(runCtx)
	}()

	var err error
	select {
	case err = <-done:
	case <-runCtx.Done():
		r.logger.Debug("Waiting for in-flight step", "cause", context.Cause(runCtx))
		err = <-done
	}
	err = r.settle(runCtx, script, err)

	report := &domain.Report{
		RunID:      r.id,
		Script:     script.Name,
		Steps:      int(r.steps.Load()),
		MaxDepth:   int(r.maxDepth.Load()),
		FinallyRan: r.finallyRan.Load(),
		StartedAt:  started,
		Duration:   time.Since(started),
	}

	switch {
	case err == nil:
		r.logger.Info("Script finished", "steps", report.Steps, "duration", report.Duration)
	case errors.Is(err, domain.ErrTimeout):
		r.logger.Warn("Script timed out", "steps", report.Steps, "limit", script.Timeout())
	default:
		r.logger.Error("Script failed", "steps", report.Steps, "error", err)
	}
	r.emitRunEnd(ctx, report, err)

	return report, err
}

func withDeadline(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, limit, domain.ErrTimeout)
}

// settle maps the loop result to the error reported to the caller. An expired
// deadline wins over any other result.
func (r *run) settle(runCtx context.Context, script *domain.Script, err error) error {
	if errors.Is(context.Cause(runCtx), domain.ErrTimeout) {
		return &TimeoutError{Script: script.Name, Limit: script.Timeout()}
	}
	return err
}
