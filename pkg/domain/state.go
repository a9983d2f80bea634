package domain

// ExecutionState is the mutable context of a single run.
// Commands and checkers receive the same pointer for the whole run, so every
// mutation is visible to the following steps.
type ExecutionState struct {
	// Profile is the caller supplied document. The engine never interprets it.
	Profile any

	Variables map[string]any

	// Buffer is a scratch area commands may append to or replace.
	Buffer string

	// RetryCount counts consecutive dispatches of the same action.
	// It is reset when a different action is dispatched.
	RetryCount int
}

// NewExecutionState creates a clean state for a run against profile.
func NewExecutionState(profile any) *ExecutionState {
	return &ExecutionState{
		Profile:   profile,
		Variables: make(map[string]any),
	}
}

// Set stores a variable, allocating the map if needed.
func (s *ExecutionState) Set(key string, value any) {
	if s.Variables == nil {
		s.Variables = make(map[string]any)
	}
	s.Variables[key] = value
}

// Get returns a variable.
func (s *ExecutionState) Get(key string) (any, bool) {
	v, ok := s.Variables[key]
	return v, ok
}

// View returns a read-only projection of the state used for path lookups.
// A *Profile contributes its id and fields; any other profile is used as is.
func (s *ExecutionState) View() map[string]any {
	view := map[string]any{
		"variables": s.Variables,
		"buffer":    s.Buffer,
		"retry":     s.RetryCount,
	}
	switch p := s.Profile.(type) {
	case nil:
	case *Profile:
		view["profile"] = p.Flatten()
	default:
		view["profile"] = p
	}
	return view
}
