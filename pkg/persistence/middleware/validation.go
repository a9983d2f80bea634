package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/schema"
)

type schemaMiddleware struct {
	ports.ProfileStore
	schema schema.Schema
}

// NewSchemaMiddleware rejects saves whose profile data does not satisfy s.
// Loads are not checked, so documents written before a schema change stay
// readable and can be repaired.
func NewSchemaMiddleware(s schema.Schema) Middleware {
	return func(next ports.ProfileStore) ports.ProfileStore {
		return &schemaMiddleware{ProfileStore: next, schema: s}
	}
}

func (m *schemaMiddleware) Save(ctx context.Context, p *domain.Profile) error {
	if err := schema.Validate(m.schema, p.Data); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return m.ProfileStore.Save(ctx, p)
}
