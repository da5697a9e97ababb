package repository

import (
	"context"

	"materialapi/internal/model"
)

// FileRepository defines data access for registered files using SQL queries only.
// No business logic here — strictly persistence operations.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error)

	// FindByID returns a file by its ID.
	FindByID(ctx context.Context, id string) (*model.StoredFile, error)

	// FindByKey returns a file by its storage key.
	FindByKey(ctx context.Context, key string) (*model.StoredFile, error)
}
