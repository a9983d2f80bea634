package runtime

import (
	"fmt"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
)

// noAction marks a ConfigError that is not tied to a single action.
const noAction = -1

// ConfigError reports a script that cannot run: a missing command, checker,
// entry point or procedure, or a target that does not resolve.
type ConfigError struct {
	Script   string
	Scope    string
	ActionID int
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.ActionID == noAction {
		return fmt.Sprintf("invalid script %q: %s: %s", e.Script, domain.ScopeName(e.Scope), e.Reason)
	}
	return fmt.Sprintf("invalid script %q: %s action %d: %s", e.Script, domain.ScopeName(e.Scope), e.ActionID, e.Reason)
}

func (e *ConfigError) Unwrap() error { return domain.ErrInvalidScript }

func configErr(script, scope string, actionID int, format string, args ...any) *ConfigError {
	return &ConfigError{
		Script:   script,
		Scope:    scope,
		ActionID: actionID,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// CommandError wraps the error returned by a command.
type CommandError struct {
	Scope    string
	ActionID int
	Command  string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed at %s action %d: %v", e.Command, domain.ScopeName(e.Scope), e.ActionID, e.Err)
}

// Unwrap matches both domain.ErrCommandFailed and the underlying error.
func (e *CommandError) Unwrap() []error { return []error{domain.ErrCommandFailed, e.Err} }

// CheckerError wraps the error returned by a checker predicate.
type CheckerError struct {
	Scope    string
	ActionID int
	Checker  string
	Err      error
}

func (e *CheckerError) Error() string {
	return fmt.Sprintf("checker %q failed at %s action %d: %v", e.Checker, domain.ScopeName(e.Scope), e.ActionID, e.Err)
}

func (e *CheckerError) Unwrap() []error { return []error{domain.ErrCheckerFailed, e.Err} }

// TimeoutError is returned when a run exceeds the script's MaxExecutionTime.
type TimeoutError struct {
	Script string
	Limit  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("script %q exceeded max execution time of %s", e.Script, e.Limit)
}

func (e *TimeoutError) Unwrap() error { return domain.ErrTimeout }
