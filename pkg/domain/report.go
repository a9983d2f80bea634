package domain

import "time"

// Report summarizes a finished run.
type Report struct {
	RunID      string        `json:"run_id"`
	Script     string        `json:"script"`
	Steps      int           `json:"steps"`
	MaxDepth   int           `json:"max_depth"`
	FinallyRan bool          `json:"finally_ran"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
