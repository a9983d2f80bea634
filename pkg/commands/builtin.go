package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/registry"
	"github.com/tidwall/gjson"
)

// Register installs the builtin commands into reg. A nil logger discards
// output of the log command.
func Register(reg *registry.Commands, logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	reg.RegisterFunc("noop", Noop)
	reg.RegisterFunc("set", Set)
	reg.RegisterFunc("buffer", Buffer)
	reg.RegisterFunc("sleep", Sleep)
	reg.RegisterFunc("fail", Fail)
	reg.RegisterFunc("profile.set", ProfileSet)
	reg.RegisterFunc("profile.get", ProfileGet)
	reg.Register("log", Log{Logger: logger})
}

// Noop succeeds without side effects.
func Noop(context.Context, *domain.Action, *domain.ExecutionState) (domain.Outcome, error) {
	return domain.Succeeded(nil), nil
}

type setParams struct {
	Key   string `mapstructure:"key"`
	Value any    `mapstructure:"value"`
	// From is a path into the state view ("buffer", "variables.code",
	// "profile.auth.login"); it wins over Value when set.
	From string `mapstructure:"from"`
}

// Set stores a variable, either a literal or a value copied from the state.
func Set(_ context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	var p setParams
	if err := decodeParams(action, &p); err != nil {
		return domain.Outcome{}, err
	}
	if p.Key == "" {
		return domain.Outcome{}, fmt.Errorf("action %d (set): key is required", action.ID)
	}

	value := p.Value
	if p.From != "" {
		v, ok, err := lookup(state, p.From)
		if err != nil {
			return domain.Outcome{}, err
		}
		if !ok {
			return domain.Failed(fmt.Sprintf("path %q not found", p.From)), nil
		}
		value = v
	}
	state.Set(p.Key, value)
	return domain.Succeeded(value), nil
}

type bufferParams struct {
	Mode  string `mapstructure:"mode"`
	Value string `mapstructure:"value"`
}

// Buffer edits the scratch buffer. Modes: replace (default), append, clear.
func Buffer(_ context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	var p bufferParams
	if err := decodeParams(action, &p); err != nil {
		return domain.Outcome{}, err
	}
	switch p.Mode {
	case "", "replace":
		state.Buffer = p.Value
	case "append":
		state.Buffer += p.Value
	case "clear":
		state.Buffer = ""
	default:
		return domain.Outcome{}, fmt.Errorf("action %d (buffer): unknown mode %q", action.ID, p.Mode)
	}
	return domain.Succeeded(state.Buffer), nil
}

type sleepParams struct {
	Duration domain.Duration `mapstructure:"duration"`
}

// Sleep pauses for the configured duration, returning early with the context
// error when the run is cancelled.
func Sleep(ctx context.Context, action *domain.Action, _ *domain.ExecutionState) (domain.Outcome, error) {
	var p sleepParams
	if err := decodeParams(action, &p); err != nil {
		return domain.Outcome{}, err
	}
	timer := time.NewTimer(p.Duration.Std())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	case <-timer.C:
		return domain.Succeeded(nil), nil
	}
}

type failParams struct {
	Message string `mapstructure:"message"`
	// Fatal turns the failure into an error that aborts the run.
	Fatal bool `mapstructure:"fatal"`
}

// Fail produces a failed outcome, or an error when fatal is set.
func Fail(_ context.Context, action *domain.Action, _ *domain.ExecutionState) (domain.Outcome, error) {
	var p failParams
	if err := decodeParams(action, &p); err != nil {
		return domain.Outcome{}, err
	}
	if p.Message == "" {
		p.Message = "failed"
	}
	if p.Fatal {
		return domain.Outcome{}, fmt.Errorf("action %d: %s", action.ID, p.Message)
	}
	return domain.Failed(p.Message), nil
}

type logParams struct {
	Message string         `mapstructure:"message"`
	Level   string         `mapstructure:"level"`
	Attrs   map[string]any `mapstructure:"attrs"`
}

// Log writes a structured log line. The message may reference the state
// with {{path}} placeholders, e.g. "status {{variables.code}}".
type Log struct {
	Logger *slog.Logger
}

// Execute implements ports.Command.
func (l Log) Execute(ctx context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	var p logParams
	if err := decodeParams(action, &p); err != nil {
		return domain.Outcome{}, err
	}

	var level slog.Level
	if p.Level != "" {
		if err := level.UnmarshalText([]byte(p.Level)); err != nil {
			return domain.Outcome{}, fmt.Errorf("action %d (log): %w", action.ID, err)
		}
	}

	msg, err := interpolate(p.Message, state)
	if err != nil {
		return domain.Outcome{}, err
	}

	attrs := make([]any, 0, 2+2*len(p.Attrs))
	attrs = append(attrs, "action_id", action.ID)
	for k, v := range p.Attrs {
		attrs = append(attrs, k, v)
	}
	l.Logger.Log(ctx, level, msg, attrs...)
	return domain.Succeeded(msg), nil
}

type profileParams struct {
	Path   string `mapstructure:"path"`
	Value  any    `mapstructure:"value"`
	From   string `mapstructure:"from"`
	SaveTo string `mapstructure:"save_to"`
}

// ProfileSet writes a dotted path of the run's profile.
func ProfileSet(_ context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	profile, p, err := profileArgs(action, state)
	if err != nil {
		return domain.Outcome{}, err
	}
	value := p.Value
	if p.From != "" {
		v, ok, err := lookup(state, p.From)
		if err != nil {
			return domain.Outcome{}, err
		}
		if !ok {
			return domain.Failed(fmt.Sprintf("path %q not found", p.From)), nil
		}
		value = v
	}
	if err := profile.Set(p.Path, value); err != nil {
		return domain.Failed(err.Error()), nil
	}
	return domain.Succeeded(value), nil
}

// ProfileGet reads a dotted path of the profile into a variable
// (save_to, defaulting to the last path segment).
func ProfileGet(_ context.Context, action *domain.Action, state *domain.ExecutionState) (domain.Outcome, error) {
	profile, p, err := profileArgs(action, state)
	if err != nil {
		return domain.Outcome{}, err
	}
	v, ok := profile.Get(p.Path)
	if !ok {
		return domain.Failed(fmt.Sprintf("profile has no %q", p.Path)), nil
	}
	key := p.SaveTo
	if key == "" {
		key = p.Path[strings.LastIndex(p.Path, ".")+1:]
	}
	state.Set(key, v)
	return domain.Succeeded(v), nil
}

func profileArgs(action *domain.Action, state *domain.ExecutionState) (*domain.Profile, profileParams, error) {
	var p profileParams
	if err := decodeParams(action, &p); err != nil {
		return nil, p, err
	}
	if p.Path == "" {
		return nil, p, fmt.Errorf("action %d (%s): path is required", action.ID, action.Command)
	}
	profile, ok := state.Profile.(*domain.Profile)
	if !ok || profile == nil {
		return nil, p, fmt.Errorf("action %d (%s): run has no profile document", action.ID, action.Command)
	}
	return profile, p, nil
}

// lookup resolves a gjson path against the state view.
func lookup(state *domain.ExecutionState, path string) (any, bool, error) {
	raw, err := json.Marshal(state.View())
	if err != nil {
		return nil, false, fmt.Errorf("state is not serializable: %w", err)
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil, false, nil
	}
	return res.Value(), true, nil
}

// interpolate replaces {{path}} placeholders with state values.
// Unknown paths render as an empty string.
func interpolate(tmpl string, state *domain.ExecutionState) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}
	raw, err := json.Marshal(state.View())
	if err != nil {
		return "", fmt.Errorf("state is not serializable: %w", err)
	}

	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		path := strings.TrimSpace(rest[start+2 : start+end])
		b.WriteString(gjson.GetBytes(raw, path).String())
		rest = rest[start+end+2:]
	}
	return b.String(), nil
}
