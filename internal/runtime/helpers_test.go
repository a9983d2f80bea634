package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/scriptor/internal/runtime"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/registry"
	"github.com/aretw0/scriptor/pkg/schema"
)

var errBoom = errors.New("boom")

// tracer records every dispatched action as "scope:id".
type tracer struct {
	mu      sync.Mutex
	entries []string
	retries []int
}

func (tr *tracer) record(scope string, id, retry int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.entries = append(tr.entries, fmt.Sprintf("%s:%d", domain.ScopeName(scope), id))
	tr.retries = append(tr.retries, retry)
}

func (tr *tracer) trace() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.entries...)
}

func (tr *tracer) retryCounts() []int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]int(nil), tr.retries...)
}

// funcChecker is a checker built from a closure.
type funcChecker struct {
	inputs []ports.InputSpec
	fn     func(domain.Outcome, map[string]any) (bool, error)
}

func (c funcChecker) Inputs() []ports.InputSpec { return c.inputs }

func (c funcChecker) Check(_ context.Context, o domain.Outcome, in map[string]any) (bool, error) {
	return c.fn(o, in)
}

func constChecker(v bool) funcChecker {
	return funcChecker{fn: func(domain.Outcome, map[string]any) (bool, error) { return v, nil }}
}

// flipChecker returns true on its first evaluation and false afterwards.
func flipChecker() funcChecker {
	var calls atomic.Int32
	return funcChecker{fn: func(domain.Outcome, map[string]any) (bool, error) {
		return calls.Add(1) == 1, nil
	}}
}

type fixture struct {
	commands *registry.Commands
	checkers *registry.Checkers
	tracer   *tracer
	ticks    atomic.Int64
}

// newFixture registers commands that trace their action before acting:
//
//	record  succeeds
//	fail    returns a failed outcome
//	boom    returns an error
//	block   waits for the context to be cancelled
//	stall   sleeps 80ms ignoring the context
//	tick    counts and sleeps 1ms
func newFixture() *fixture {
	f := &fixture{
		commands: registry.NewCommands(),
		checkers: registry.NewCheckers(),
		tracer:   &tracer{},
	}

	traced := func(fn func(ctx context.Context, s *domain.ExecutionState) (domain.Outcome, error)) ports.Command {
		return ports.CommandFunc(func(ctx context.Context, a *domain.Action, s *domain.ExecutionState) (domain.Outcome, error) {
			f.tracer.record(scopeOf(a), a.ID, s.RetryCount)
			return fn(ctx, s)
		})
	}

	f.commands.Register("record", traced(func(context.Context, *domain.ExecutionState) (domain.Outcome, error) {
		return domain.Succeeded(nil), nil
	}))
	f.commands.Register("fail", traced(func(context.Context, *domain.ExecutionState) (domain.Outcome, error) {
		return domain.Failed("nope"), nil
	}))
	f.commands.Register("boom", traced(func(context.Context, *domain.ExecutionState) (domain.Outcome, error) {
		return domain.Outcome{}, errBoom
	}))
	f.commands.Register("block", traced(func(ctx context.Context, _ *domain.ExecutionState) (domain.Outcome, error) {
		<-ctx.Done()
		return domain.Outcome{}, ctx.Err()
	}))
	f.commands.Register("stall", traced(func(context.Context, *domain.ExecutionState) (domain.Outcome, error) {
		time.Sleep(80 * time.Millisecond)
		return domain.Succeeded(nil), nil
	}))
	f.commands.Register("tick", traced(func(context.Context, *domain.ExecutionState) (domain.Outcome, error) {
		f.ticks.Add(1)
		time.Sleep(time.Millisecond)
		return domain.Succeeded(nil), nil
	}))

	f.checkers.Register("always-true", constChecker(true))
	f.checkers.Register("never", constChecker(false))
	f.checkers.Register("success", funcChecker{fn: func(o domain.Outcome, _ map[string]any) (bool, error) {
		return o.Success, nil
	}})
	f.checkers.Register("broken", funcChecker{fn: func(domain.Outcome, map[string]any) (bool, error) {
		return false, errBoom
	}})
	f.checkers.Register("retry-below", funcChecker{
		inputs: []ports.InputSpec{
			{Name: "retry", Type: schema.Int(), Default: "$retry"},
			{Name: "limit", Type: schema.Int()},
		},
		fn: func(_ domain.Outcome, in map[string]any) (bool, error) {
			return toInt(in["retry"]) < toInt(in["limit"]), nil
		},
	})
	return f
}

func (f *fixture) engine(opts ...runtime.EngineOption) *runtime.Engine {
	return runtime.NewEngine(f.commands, f.checkers, opts...)
}

// scopeOf reads the scope an action belongs to. Commands do not receive the
// scope, so act tags every procedure action with a "scope" param.
func scopeOf(a *domain.Action) string {
	if s, ok := a.Params["scope"].(string); ok {
		return s
	}
	return domain.MainScope
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return -1
	}
}

// act builds an action; procedure actions get tagged with their scope.
func act(scope string, id int, command string) domain.Action {
	a := domain.Action{ID: id, Command: command}
	if scope != domain.MainScope {
		a.Params = map[string]any{"scope": scope}
	}
	return a
}

func entry(a domain.Action) domain.Action {
	a.EntryPoint = true
	return a
}

func next(a domain.Action, t domain.Target) domain.Action {
	a.Next = &t
	return a
}

func when(a domain.Action, checker string, t domain.Target) domain.Action {
	a.Conditional = append(a.Conditional, domain.Conditional{Checker: checker, Next: t})
	return a
}
