package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventActionEnter     EventType = "action_enter"
	EventActionLeave     EventType = "action_leave"
	EventCommandCall     EventType = "command_call"
	EventCommandReturn   EventType = "command_return"
	EventProcedureEnter  EventType = "procedure_enter"
	EventProcedureReturn EventType = "procedure_return"
	EventFinally         EventType = "finally"
	EventRunEnd          EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Script    string    `json:"script"`
}

// ActionEvent represents entry into or exit from an action.
type ActionEvent struct {
	EventBase
	Scope    string `json:"scope"`
	ActionID int    `json:"action_id"`
	Command  string `json:"command"`
	// Next is only set on leave; zero means the action dead-ended.
	Next Target `json:"next,omitempty"`
}

// CommandEvent represents a command execution.
type CommandEvent struct {
	EventBase
	Scope    string        `json:"scope"`
	ActionID int           `json:"action_id"`
	Command  string        `json:"command"`
	Retry    int           `json:"retry"`
	Outcome  *Outcome      `json:"outcome,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// ProcedureEvent represents a procedure call or return.
type ProcedureEvent struct {
	EventBase
	Procedure      string `json:"procedure"`
	ReturnActionID int    `json:"return_action_id"`
	Depth          int    `json:"depth"`
}

// RunEvent is emitted once when a run settles, successfully or not.
type RunEvent struct {
	EventBase
	Report *Report `json:"report"`
	Err    error   `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnActionEnter     func(context.Context, *ActionEvent)
	OnActionLeave     func(context.Context, *ActionEvent)
	OnCommandCall     func(context.Context, *CommandEvent)
	OnCommandReturn   func(context.Context, *CommandEvent)
	OnProcedureEnter  func(context.Context, *ProcedureEvent)
	OnProcedureReturn func(context.Context, *ProcedureEvent)
	OnFinally         func(context.Context, *ProcedureEvent)
	OnRunEnd          func(context.Context, *RunEvent)
}
