/*
Package scriptor is an interpreter for declarative automation scripts.

A script is a list of actions. Each action names a command to run and routes to
the next action either unconditionally or through checkers, predicates over the
command's outcome and the run state. Actions may call named procedures, which
return to their call site when they dead-end, and a script may declare a single
finally procedure that runs once when the top-level flow ends. Every run is
bounded by the script's max execution time.

# Concept

The engine owns control flow only. Commands (side effects) and checkers
(routing predicates) are looked up by name in registries, so a host can extend
the vocabulary scripts speak without touching the interpreter. Scripts come
from a ScriptLoader: a Loam repository by default, YAML/JSON files or memory.
Runs operate on a profile, an opaque per-run document kept by a ProfileStore.

# Usage

	eng, err := scriptor.New("./scripts")
	if err != nil {
		log.Fatal(err)
	}

	report, err := eng.RunScript(ctx, "login", domain.NewProfile("acc-1"))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%d steps in %s", report.Steps, report.Duration)

Scripts can also be built in Go with the pkg/dsl builder and served through
an in-memory loader:

	b := dsl.New("hello")
	b.Action(1).Entry().Do("log", map[string]any{"message": "hello"})
	loader, _ := dsl.Loader(b)

	eng, _ := scriptor.New("", scriptor.WithLoader(loader))
*/
package scriptor
