/*
Package dsl provides a fluent Go API for constructing scripts programmatically.

It is an alternative to YAML or JSON documents, useful for generated flows,
unit tests, and compile-time checked definitions.

Example usage:

	b := dsl.New("login").Timeout(30 * time.Second).Finally("logout")

	b.Action(1).Entry().
		Do("exec", map[string]any{"tool": "login"}).
		When("success", dsl.To(2)).
		When("failure", dsl.Call("cleanup"))

	b.Action(2).Do("profile.set", map[string]any{"path": "status", "value": "ok"})

	b.Procedure("cleanup").Action(1).Entry().Do("buffer", map[string]any{"mode": "clear"})
	b.Procedure("logout").Action(1).Entry().Do("noop", nil)

	script, err := b.Build()
*/
package dsl
