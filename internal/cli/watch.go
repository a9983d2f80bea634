package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// reloadDelay lets the file system settle before a re-run.
const reloadDelay = 100 * time.Millisecond

// Watch runs the script once, then again after every change to the scripts
// directory, until ctx is cancelled. Run failures are reported and watching
// goes on.
func (a *App) Watch(ctx context.Context, opts RunOptions, out io.Writer) error {
	changes, err := a.Engine.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch requires the loam loader: %w", err)
	}
	printSystemMessage(out, "Watching '%s'.", a.Config.ScriptsDir())

	for {
		if _, err := a.Run(ctx, opts, out); err != nil {
			if isInterrupted(err) {
				return nil
			}
			a.Logger.Error("Run failed", "script", opts.Script, "err", err)
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
		}
		printSystemMessage(out, "Waiting for changes...")

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reloadDelay):
		}
		drain(changes)
		printSystemMessage(out, "Change detected, re-running '%s'.", opts.Script)
	}
}

// drain discards the burst of events a single save produces.
func drain(ch <-chan struct{}) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
