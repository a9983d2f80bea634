/*
Package ports defines the driven ports (interfaces) of the scriptor engine.

These interfaces decouple the run loop from the concrete commands, checkers,
script sources and profile stores a host plugs in.

# Key Interfaces

  - CommandRegistry / Command: executes an action and returns an Outcome.
  - CheckerRegistry / Checker: a named predicate used by conditional routing.
  - ScriptLoader: supplies Script documents (memory, files, Loam).
  - ProfileStore: persists the per-run Profile documents.
  - DistributedLocker: serializes access to a profile across replicas.
*/
package ports
