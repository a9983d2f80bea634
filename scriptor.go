package scriptor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/internal/runtime"
	loamAdapter "github.com/aretw0/scriptor/pkg/adapters/loam"
	"github.com/aretw0/scriptor/pkg/adapters/process"
	"github.com/aretw0/scriptor/pkg/checkers"
	"github.com/aretw0/scriptor/pkg/commands"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/registry"
)

// ErrWatchUnsupported is returned by Watch when the loader cannot notify changes.
var ErrWatchUnsupported = errors.New("current loader does not support watching")

// Engine is the high-level entry point for the scriptor library.
// It wraps the internal runtime with a script loader and the builtin
// commands and checkers.
type Engine struct {
	runtime  *runtime.Engine
	loader   ports.ScriptLoader
	commands *registry.Commands
	checkers *registry.Checkers
	tools    *process.Runner
	extra    map[string]ports.Command

	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxCallDepth int

	// Name labels the engine in logs, usually the scripts directory.
	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader injects a custom ScriptLoader, bypassing the default Loam initialization.
func WithLoader(l ports.ScriptLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCommand registers an extra command, replacing a builtin of the same name.
func WithCommand(name string, cmd ports.Command) Option {
	return func(e *Engine) {
		e.extra[name] = cmd
	}
}

// WithChecker registers an extra checker, replacing a builtin of the same name.
func WithChecker(name string, c ports.Checker) Option {
	return func(e *Engine) {
		e.checkers.Register(name, c)
	}
}

// WithTools allow-lists external processes for the exec command.
func WithTools(tools map[string]process.ProcessConfig) Option {
	return func(e *Engine) {
		e.tools = process.NewRunner(process.WithRegistry(tools))
	}
}

// WithProcessRunner sets the runner behind the exec command.
func WithProcessRunner(r *process.Runner) Option {
	return func(e *Engine) {
		e.tools = r
	}
}

// WithMaxCallDepth bounds nested procedure calls.
func WithMaxCallDepth(depth int) Option {
	return func(e *Engine) {
		e.maxCallDepth = depth
	}
}

// New initializes a new Engine.
// By default, it reads scripts from a Loam repository at scriptsPath.
// If WithLoader is provided, scriptsPath can be empty and Loam is skipped.
func New(scriptsPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		commands: registry.NewCommands(),
		checkers: registry.NewCheckers(),
		extra:    make(map[string]ports.Command),
	}
	checkers.Register(eng.checkers)

	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	commands.Register(eng.commands, eng.logger)
	if eng.tools == nil {
		eng.tools = process.NewRunner()
	}
	eng.commands.Register(process.CommandName, eng.tools)
	for name, cmd := range eng.extra {
		eng.commands.Register(name, cmd)
	}

	if eng.loader == nil {
		if scriptsPath == "" {
			return nil, fmt.Errorf("scriptsPath is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(scriptsPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		loader, err := loamAdapter.Open(absPath)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	} else if scriptsPath != "" {
		eng.Name = filepath.Base(scriptsPath)
	}

	if eng.Name != "" {
		eng.logger = eng.logger.With("scripts", eng.Name)
	}

	eng.runtime = runtime.NewEngine(eng.commands, eng.checkers,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxCallDepth(eng.maxCallDepth),
	)
	return eng, nil
}

// Load returns the named script.
func (e *Engine) Load(ctx context.Context, name string) (*domain.Script, error) {
	return e.loader.Load(ctx, name)
}

// List returns the names of every available script.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.loader.List(ctx)
}

// Validate checks a script against the registered commands and checkers.
func (e *Engine) Validate(script *domain.Script) error {
	return e.runtime.Validate(script)
}

// Run executes script against profile.
func (e *Engine) Run(ctx context.Context, script *domain.Script, profile any) (*domain.Report, error) {
	return e.runtime.Run(ctx, script, profile)
}

// RunState executes script with a caller prepared state.
func (e *Engine) RunState(ctx context.Context, script *domain.Script, state *domain.ExecutionState) (*domain.Report, error) {
	return e.runtime.RunState(ctx, script, state)
}

// RunScript loads the named script and runs it against profile.
func (e *Engine) RunScript(ctx context.Context, name string, profile any) (*domain.Report, error) {
	script, err := e.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.runtime.Run(ctx, script, profile)
}

// Watch returns a channel that signals when the underlying scripts change.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, ErrWatchUnsupported
}

// Loader returns the underlying ScriptLoader used by the engine.
func (e *Engine) Loader() ports.ScriptLoader {
	return e.loader
}

// Commands returns the names of every registered command.
func (e *Engine) Commands() []string {
	return e.commands.Names()
}

// Checkers returns the names of every registered checker.
func (e *Engine) Checkers() []string {
	return e.checkers.Names()
}
