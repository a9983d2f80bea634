package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
)

// CommandName is the name the runner is usually registered under.
const CommandName = "exec"

// EnvPrefix prefixes the environment variables carrying action arguments.
const EnvPrefix = "SCRIPTOR_ARG_"

// waitDelay bounds how long a cancelled process may keep its output pipes open.
const waitDelay = time.Second

// ErrToolNotRegistered is returned for tools missing from the allow-list.
var ErrToolNotRegistered = errors.New("process tool not registered")

// Runner is a command that executes allow-listed local processes.
//
// Action params:
//
//	tool     name of a registered tool (required)
//	args     map of values passed as SCRIPTOR_ARG_<KEY> environment variables
//	save_to  variable receiving the parsed output
//
// Stdout replaces the state buffer. A non-zero exit is a failed outcome, not
// an error, so scripts can route on it.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			r.registry[name] = RegisteredProcess{Command: tool.Command, Args: tool.Args, Env: tool.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Tools returns the registered tool names.
func (r *Runner) Tools() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute implements ports.Command.
func (r *Runner) Execute(ctx context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	name, _ := action.Params["tool"].(string)
	proc, ok := r.registry[name]
	if !ok {
		return domain.Outcome{}, fmt.Errorf("%w: %q", ErrToolNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = waitDelay

	// Arguments travel as environment variables, never as flags.
	env := cmd.Environ()
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	if args, ok := action.Params["args"].(map[string]any); ok {
		for k, v := range args {
			env = append(env, EnvPrefix+strings.ToUpper(k)+"="+formatArg(v))
		}
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.Outcome{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			state.Buffer = stdout.String()
			return domain.Failed(fmt.Sprintf("%s exited with code %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))), nil
		}
		return domain.Outcome{}, fmt.Errorf("failed to start %s: %w", name, err)
	}

	output := strings.TrimSpace(stdout.String())
	state.Buffer = output
	result := parseOutput(output)
	if key, ok := action.Params["save_to"].(string); ok && key != "" {
		state.Set(key, result)
	}
	return domain.Succeeded(result), nil
}

func formatArg(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int, int64, float64, bool, json.Number:
		return fmt.Sprintf("%v", val)
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}

// parseOutput decodes JSON objects and arrays; anything else stays a string.
func parseOutput(output string) any {
	if (strings.HasPrefix(output, "{") && strings.HasSuffix(output, "}")) ||
		(strings.HasPrefix(output, "[") && strings.HasSuffix(output, "]")) {
		var v any
		if err := json.Unmarshal([]byte(output), &v); err == nil {
			return v
		}
	}
	return output
}
