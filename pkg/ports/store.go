package ports

import (
	"context"

	"github.com/aretw0/scriptor/pkg/domain"
)

// ProfileStore persists profile documents.
type ProfileStore interface {
	// Save persists the profile under its ID.
	Save(ctx context.Context, profile *domain.Profile) error

	// Load returns domain.ErrProfileNotFound if the profile does not exist.
	Load(ctx context.Context, id string) (*domain.Profile, error)

	// Delete removes a profile. Deleting a missing profile is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of every stored profile.
	List(ctx context.Context) ([]string, error)
}
