package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/scriptor/internal/presentation/tui"
	"github.com/aretw0/scriptor/pkg/runner"
)

// BatchOptions selects what a batch runs. Empty lists fall back to the
// configuration, then to everything available.
type BatchOptions struct {
	Scripts     []string
	Profiles    []string
	Concurrency int
}

// Batch runs every selected script against every selected profile.
func (a *App) Batch(ctx context.Context, opts BatchOptions, out io.Writer) (runner.Summary, error) {
	scripts := opts.Scripts
	if len(scripts) == 0 {
		scripts = a.Config.Scripts
	}
	profiles := opts.Profiles
	if len(profiles) == 0 {
		profiles = a.Config.Profiles
	}
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = a.Config.Concurrency
	}

	r := runner.New(a.Engine, a.Sessions,
		runner.WithConcurrency(concurrency),
		runner.WithLogger(a.Logger),
		runner.WithResultHandler(func(res runner.Result) {
			if res.Report == nil && res.Err == nil {
				return
			}
			fmt.Fprintf(out, "[%s] ", res.Profile)
			tui.PrintReport(out, res.Report, res.Err)
		}),
	)
	results, err := r.Run(ctx, scripts, profiles)
	sum := runner.Summarize(results)
	fmt.Fprintf(out, "%d runs: %d ok, %d failed, %d timed out\n", sum.Total, sum.OK, sum.Failed, sum.TimedOut)
	return sum, err
}
