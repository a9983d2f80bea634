/*
Package runner executes batches of scripts against stored profiles.

Each profile is handled by one worker that holds the profile's session lock,
runs every selected script against it in order and saves it back. Workers
run in parallel, bounded by the configured concurrency. A failed run is
recorded in its Result and does not stop the batch.

# Usage

	sessions := session.NewManager(store)
	r := runner.New(engine, sessions, runner.WithConcurrency(4))

	results, err := r.Run(ctx, []string{"login", "farm"}, nil)
	if err != nil {
		log.Fatal(err)
	}
	summary := runner.Summarize(results)
	log.Printf("%d ok, %d failed", summary.OK, summary.Failed)
*/
package runner
