/*
Package domain contains the core models of the scriptor engine.

It defines the immutable description of a workflow (Script, Action, Target),
the mutable run-scoped context handed to commands and checkers
(ExecutionState), the call-stack record used for procedure calls (Frame) and
the opaque per-run document (Profile). The package has no I/O and no
third-party dependencies.

# Key Entities

  - Script: the top-level action list, the named procedure table, an optional
    finally procedure and the run deadline.
  - Action: one step bound to a command, routed by Next or by an ordered
    Conditional list.
  - Target: either an action id in the current scope or a procedure name.
  - ExecutionState: variables, scratch buffer and retry counter of a run.
  - Outcome: the opaque result of a command, consumed by checkers.
*/
package domain
