package runtime

import (
	"io"
	"log/slog"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
)

// Engine interprets scripts against the commands and checkers it was built with.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	commands     ports.CommandRegistry
	checkers     ports.CheckerRegistry
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxCallDepth int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
// Hooks are called from the goroutine running the loop.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxCallDepth bounds the number of nested procedure frames.
// Values below 1 restore domain.DefaultMaxCallDepth.
func WithMaxCallDepth(depth int) EngineOption {
	return func(e *Engine) {
		if depth < 1 {
			depth = domain.DefaultMaxCallDepth
		}
		e.maxCallDepth = depth
	}
}

// NewEngine creates an engine bound to the given registries.
func NewEngine(commands ports.CommandRegistry, checkers ports.CheckerRegistry, opts ...EngineOption) *Engine {
	e := &Engine{
		commands:     commands,
		checkers:     checkers,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxCallDepth: domain.DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks a script against the engine's registries.
func (e *Engine) Validate(script *domain.Script) error {
	return ValidateScript(script, e.commands, e.checkers)
}
