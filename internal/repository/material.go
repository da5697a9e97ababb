package repository

import (
	"context"

	"materialapi/internal/model"
)

// MaterialRepository defines data access for entity/material links.
type MaterialRepository interface {
	// Create inserts a new material record and returns the stored row.
	Create(ctx context.Context, m *model.Material) (*model.Material, error)

	// FindByID returns a material by its ID.
	FindByID(ctx context.Context, id string) (*model.Material, error)

	// ListByEntity returns a page of materials attached to the given entity,
	// newest first, plus the total row count for that entity.
	ListByEntity(ctx context.Context, kind model.EntityKind, entityID string, pq PageQuery) (*PageResult[model.Material], error)

	// Delete removes a material by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
