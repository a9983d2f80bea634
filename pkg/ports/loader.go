package ports

import (
	"context"

	"github.com/aretw0/scriptor/pkg/domain"
)

// ScriptLoader supplies script documents by name.
// Load returns domain.ErrScriptNotFound for unknown names.
type ScriptLoader interface {
	Load(ctx context.Context, name string) (*domain.Script, error)

	// List returns the names of all available scripts.
	List(ctx context.Context) ([]string, error)
}

// Watchable is implemented by loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying scripts change.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
