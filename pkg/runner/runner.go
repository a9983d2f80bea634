package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/session"
	"golang.org/x/sync/errgroup"
)

// Executor runs named scripts. *scriptor.Engine implements it.
type Executor interface {
	RunScript(ctx context.Context, name string, profile any) (*domain.Report, error)
	List(ctx context.Context) ([]string, error)
}

// Result is the outcome of one script run against one profile.
type Result struct {
	Script  string
	Profile string
	Report  *domain.Report
	Err     error
}

// OK reports whether the run finished without error.
func (r Result) OK() bool { return r.Err == nil }

// Summary counts the results of a batch.
type Summary struct {
	Total    int
	OK       int
	Failed   int
	TimedOut int
	Duration time.Duration
}

// Summarize counts results; timeouts are counted as failures too.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.OK():
			s.OK++
		case errors.Is(r.Err, domain.ErrTimeout):
			s.Failed++
			s.TimedOut++
		default:
			s.Failed++
		}
		if r.Report != nil {
			s.Duration += r.Report.Duration
		}
	}
	return s
}

// Runner executes every selected script against every selected profile.
type Runner struct {
	executor    Executor
	sessions    *session.Manager
	concurrency int
	logger      *slog.Logger
	onResult    func(Result)
}

// New creates a Runner.
func New(executor Executor, sessions *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		executor:    executor,
		sessions:    sessions,
		concurrency: 1,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes scripts against profiles. An empty scripts list selects
// every script the executor knows, an empty profiles list every stored
// profile. Results are ordered by profile, then script, as selected.
//
// The returned error is only set when the selection cannot be resolved or
// ctx is cancelled; run failures are reported in the results.
func (r *Runner) Run(ctx context.Context, scripts, profiles []string) ([]Result, error) {
	scripts, profiles, err := r.resolve(ctx, scripts, profiles)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Batch started", "scripts", len(scripts), "profiles", len(profiles), "concurrency", r.concurrency)
	started := time.Now()

	results := make([]Result, len(scripts)*len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, profileID := range profiles {
		slots := results[i*len(scripts) : (i+1)*len(scripts)]
		g.Go(func() error {
			r.runProfile(gctx, profileID, scripts, slots)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	r.logger.Info("Batch finished",
		"ok", summary.OK,
		"failed", summary.Failed,
		"timed_out", summary.TimedOut,
		"duration", time.Since(started),
	)
	return results, ctx.Err()
}

// runProfile runs scripts sequentially against one profile while holding its
// session, filling slots in order.
func (r *Runner) runProfile(ctx context.Context, profileID string, scripts []string, slots []Result) {
	for i, name := range scripts {
		slots[i] = Result{Script: name, Profile: profileID}
	}

	done := 0
	err := r.sessions.WithProfile(ctx, profileID, func(ctx context.Context, p *domain.Profile) error {
		for i, name := range scripts {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slots[i].Report, slots[i].Err = r.executor.RunScript(ctx, name, p)
			done = i + 1
		}
		return nil
	})

	// A session error (lock, load, save or cancellation) marks every run
	// that did not fail on its own: their effects on the profile are lost.
	if err != nil {
		for i := range slots {
			if i >= done || slots[i].Err == nil {
				slots[i].Err = fmt.Errorf("profile %s: %w", profileID, err)
			}
		}
	}
	for _, res := range slots {
		r.finish(res)
	}
}

func (r *Runner) finish(res Result) {
	if res.Err != nil {
		r.logger.Warn("Run failed", "script", res.Script, "profile_id", res.Profile, "err", res.Err)
	} else {
		r.logger.Debug("Run finished", "script", res.Script, "profile_id", res.Profile, "steps", res.Report.Steps)
	}
	if r.onResult != nil {
		r.onResult(res)
	}
}

func (r *Runner) resolve(ctx context.Context, scripts, profiles []string) ([]string, []string, error) {
	var err error
	if len(scripts) == 0 {
		scripts, err = r.executor.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list scripts: %w", err)
		}
	}
	if len(profiles) == 0 {
		profiles, err = r.sessions.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list profiles: %w", err)
		}
	}
	return scripts, profiles, nil
}
