package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/scriptor/internal/presentation/graph"
	"github.com/aretw0/scriptor/internal/presentation/tui"
	"github.com/aretw0/scriptor/pkg/domain"
)

// RunOptions configures a single script run.
type RunOptions struct {
	Script string
	// ProfileID runs against a stored profile, saved back afterwards.
	// Empty runs against a throwaway profile.
	ProfileID string
	// Variables is a JSON object of initial run variables.
	Variables string
	// Trace, when registered through Options.Hooks, is printed as a Mermaid
	// flowchart of the visited actions.
	Trace *graph.Trace
	Quiet bool
}

// Run executes one script and prints its report to out.
func (a *App) Run(ctx context.Context, opts RunOptions, out io.Writer) (*domain.Report, error) {
	vars, err := parseVariables(opts.Variables)
	if err != nil {
		return nil, err
	}
	script, err := a.Engine.Load(ctx, opts.Script)
	if err != nil {
		return nil, err
	}

	var report *domain.Report
	run := func(ctx context.Context, p *domain.Profile) error {
		state := domain.NewExecutionState(p)
		for k, v := range vars {
			state.Set(k, v)
		}
		var runErr error
		report, runErr = a.Engine.RunState(ctx, script, state)
		return runErr
	}

	if opts.ProfileID != "" {
		if !opts.Quiet {
			printSystemMessage(out, "Profile '%s' active.", opts.ProfileID)
		}
		err = a.Sessions.WithProfile(ctx, opts.ProfileID, run)
	} else {
		err = run(ctx, domain.NewProfile(""))
	}

	if !opts.Quiet && report != nil {
		tui.PrintReport(out, report, err)
		if opts.Trace != nil {
			fmt.Fprintln(out, graph.GenerateMermaid(script, opts.Trace.Overlay()))
		}
	}
	return report, err
}
