package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	return "sh"
}

func execAction(tool string, params map[string]any) *domain.Action {
	p := map[string]any{"tool": tool}
	for k, v := range params {
		p[k] = v
	}
	return &domain.Action{ID: 1, Command: CommandName, Params: p}
}

func TestRunner_Execute(t *testing.T) {
	sh := shell(t)
	runner := NewRunner()
	runner.Register("greet", sh, "-c", "echo hello $SCRIPTOR_ARG_NAME")
	runner.Register("json", sh, "-c", `echo '{"ok": true}'`)
	runner.Register("fail", sh, "-c", "echo oops >&2; exit 3")

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		state := domain.NewExecutionState(nil)
		out, err := runner.Execute(context.Background(), execAction("greet", map[string]any{
			"args":    map[string]any{"name": "bob"},
			"save_to": "greeting",
		}), state)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, "hello bob", state.Buffer)

		v, _ := state.Get("greeting")
		assert.Equal(t, "hello bob", v)
	})

	t.Run("Parses JSON Output", func(t *testing.T) {
		out, err := runner.Execute(context.Background(), execAction("json", nil), domain.NewExecutionState(nil))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, out.Data)
	})

	t.Run("Non-Zero Exit Is A Failed Outcome", func(t *testing.T) {
		out, err := runner.Execute(context.Background(), execAction("fail", nil), domain.NewExecutionState(nil))
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Contains(t, out.Message, "exited with code 3")
		assert.Contains(t, out.Message, "oops")
	})

	t.Run("Fails For Unregistered Tool", func(t *testing.T) {
		_, err := runner.Execute(context.Background(), execAction("hacker_script", nil), domain.NewExecutionState(nil))
		assert.ErrorIs(t, err, ErrToolNotRegistered)
	})
}

func TestRunner_HonoursCancellation(t *testing.T) {
	sh := shell(t)
	runner := NewRunner()
	runner.Register("slow", sh, "-c", "exec sleep 5")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runner.Execute(ctx, execAction("slow", nil), domain.NewExecutionState(nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: greet
    command: sh
    args: ["-c", "echo $GREETING"]
    env:
      GREETING: hi
  - command: ignored-without-name
`), 0644))

	tools, err := LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "sh", tools["greet"].Command)

	missing, err := LoadTools(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)

	if runtime.GOOS != "windows" {
		state := domain.NewExecutionState(nil)
		_, err := NewRunner(WithRegistry(tools)).Execute(context.Background(), execAction("greet", nil), state)
		require.NoError(t, err)
		assert.Equal(t, "hi", state.Buffer)
	}
}
