package domain

import "errors"

// ErrInvalidScript is matched by every configuration error: missing command,
// checker, entry point, procedure, or an unresolvable action id.
var ErrInvalidScript = errors.New("invalid script")

// ErrCommandFailed is matched by fatal command execution errors.
var ErrCommandFailed = errors.New("command failed")

// ErrCheckerFailed is matched by checker predicates that returned an error.
var ErrCheckerFailed = errors.New("checker failed")

// ErrTimeout is returned when a run exceeds its script's MaxExecutionTime.
var ErrTimeout = errors.New("script execution timed out")

// ErrCallDepthExceeded is returned when nested procedure calls exceed the configured limit.
var ErrCallDepthExceeded = errors.New("procedure call depth exceeded")

// ErrScriptNotFound is returned by loaders when a script name is unknown.
var ErrScriptNotFound = errors.New("script not found")

// ErrProfileNotFound is returned by profile stores when an id is unknown.
var ErrProfileNotFound = errors.New("profile not found")

// ErrInvalidPath is returned when a profile path crosses an array with a
// segment that is not a valid index.
var ErrInvalidPath = errors.New("invalid profile path")
