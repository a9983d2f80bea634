package runner

import "log/slog"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithConcurrency bounds the number of profiles processed at once.
// Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResultHandler registers a callback invoked as each run finishes.
// It may be called from several goroutines at once.
func WithResultHandler(fn func(Result)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}
