package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/scriptor/pkg/domain"
)

// Loader adapts a Loam repository to the ScriptLoader port.
// Every document (Markdown with frontmatter, JSON or YAML) is one script.
type Loader struct {
	Repo *loam.TypedRepository[ScriptMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ScriptMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	repo, err := loam.Init(path,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam repository %s: %w", path, err)
	}
	return New(loam.NewTypedRepository[ScriptMetadata](repo)), nil
}

// Load retrieves a script by name. Loam resolves "login" to login.md (or
// .json/.yaml); scripts whose declared name differs from their file are
// found through the listing.
func (l *Loader) Load(ctx context.Context, name string) (*domain.Script, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err == nil {
		resolved := scriptName(doc.ID, doc.Data)
		if resolved == name {
			return decodeScript(resolved, doc.Data, strings.TrimSpace(doc.Content))
		}
	}

	docs, listErr := l.Repo.List(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("loam list failed: %w", listErr)
	}
	for _, d := range docs {
		if scriptName(d.ID, d.Data) == name {
			return decodeScript(name, d.Data, strings.TrimSpace(d.Content))
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, name)
}

// List returns the names of all scripts in the repository.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name := scriptName(doc.ID, doc.Data)
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: script '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Coalesce bursts: a pending signal already means "reload".
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// scriptName prefers the declared name and falls back to the document id.
func scriptName(docID string, meta ScriptMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
