package scriptor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/scriptor"
	"github.com/aretw0/scriptor/pkg/adapters/process"
	"github.com/aretw0/scriptor/pkg/checkers"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/dsl"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_Integration(t *testing.T) {
	repoPath := t.TempDir()
	content := []byte(`---
name: visit
finally: done
actions:
  - id: 1
    entry_point: true
    command: set
    params:
      key: page
      value: home
    next: 2
  - id: 2
    command: profile.set
    params:
      path: visits.last
      from: variables.page
procedures:
  done:
    - id: 1
      entry_point: true
      command: buffer
      params:
        value: finished
---
Visits the home page.`)
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "visit.md"), content, 0644))

	engine, err := scriptor.New(repoPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(repoPath), engine.Name)

	ctx := context.Background()
	names, err := engine.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"visit"}, names)

	script, err := engine.Load(ctx, "visit")
	require.NoError(t, err)
	assert.Equal(t, "Visits the home page.", script.Description)
	require.NoError(t, engine.Validate(script))

	profile := domain.NewProfile("acc-1")
	state := domain.NewExecutionState(profile)
	report, err := engine.RunState(ctx, script, state)
	require.NoError(t, err)

	last, ok := profile.Get("visits.last")
	require.True(t, ok)
	assert.Equal(t, "home", last)
	assert.Equal(t, "finished", state.Buffer)
	assert.Equal(t, 3, report.Steps)
	assert.True(t, report.FinallyRan)
}

func TestNew_RequiresPathWithoutLoader(t *testing.T) {
	_, err := scriptor.New("")
	assert.Error(t, err)
}

func newEngine(t *testing.T, opts ...scriptor.Option) *scriptor.Engine {
	t.Helper()
	b := dsl.New("custom")
	b.Action(1).Entry().Do("greet", nil).When("shouted", dsl.To(2))
	b.Action(2).Do("noop", nil)
	loader, err := dsl.Loader(b)
	require.NoError(t, err)

	engine, err := scriptor.New("", append([]scriptor.Option{scriptor.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return engine
}

func TestNew_Registries(t *testing.T) {
	engine := newEngine(t)

	assert.Subset(t, engine.Commands(), []string{"noop", "set", "buffer", "log", "sleep", "fail", "profile.set", "profile.get", process.CommandName})
	assert.Subset(t, engine.Checkers(), []string{"success", "failure", "always", "never", "equals", "retry-below", "variable-set", "buffer-contains"})

	script, err := engine.Load(context.Background(), "custom")
	require.NoError(t, err)
	assert.ErrorIs(t, engine.Validate(script), domain.ErrInvalidScript, "greet and shouted are not registered")
}

func TestWithCommandAndChecker(t *testing.T) {
	var greeted bool
	engine := newEngine(t,
		scriptor.WithCommand("greet", ports.CommandFunc(func(context.Context, *domain.Action, *domain.ExecutionState) (domain.Outcome, error) {
			greeted = true
			return domain.Succeeded("HELLO"), nil
		})),
		scriptor.WithChecker("Shouted", checkers.Func(nil, func(o domain.Outcome, _ map[string]any) (bool, error) {
			return o.Data == "HELLO", nil
		})),
	)

	report, err := engine.RunScript(context.Background(), "custom", nil)
	require.NoError(t, err)
	assert.True(t, greeted)
	assert.Equal(t, 2, report.Steps)
}

func TestWithCommand_OverridesBuiltin(t *testing.T) {
	var calls int
	engine := newEngine(t,
		scriptor.WithCommand("greet", ports.CommandFunc(func(context.Context, *domain.Action, *domain.ExecutionState) (domain.Outcome, error) {
			return domain.Succeeded(nil), nil
		})),
		scriptor.WithChecker("shouted", checkers.Func(nil, func(domain.Outcome, map[string]any) (bool, error) { return true, nil })),
		scriptor.WithCommand("noop", ports.CommandFunc(func(context.Context, *domain.Action, *domain.ExecutionState) (domain.Outcome, error) {
			calls++
			return domain.Succeeded(nil), nil
		})),
	)

	_, err := engine.RunScript(context.Background(), "custom", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunScript_NotFound(t *testing.T) {
	engine := newEngine(t)
	_, err := engine.RunScript(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestWatch(t *testing.T) {
	_, err := newEngine(t).Watch(context.Background())
	assert.ErrorIs(t, err, scriptor.ErrWatchUnsupported)

	repoPath := t.TempDir()
	engine, err := scriptor.New(repoPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := engine.Watch(ctx)
	require.NoError(t, err)
	assert.NotNil(t, ch)
}
