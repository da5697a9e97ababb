package postgres

import (
	"context"
	"database/sql"

	"materialapi/internal/model"
	"materialapi/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, storage_key, name, size, category, width, height, duration, position, active, thumbnail_key, owner_id, owner_type, created_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	const q = `
		INSERT INTO files (id, storage_key, name, size, category, width, height, duration, position, active, thumbnail_key, owner_id, owner_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.StorageKey,
		f.Name,
		f.Size,
		f.Category,
		f.Width,
		f.Height,
		f.Duration,
		f.Position,
		f.Active,
		f.ThumbnailKey,
		f.OwnerID,
		f.OwnerType,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// FindByKey fetches a single file by its storage key.
func (r *FilePostgres) FindByKey(ctx context.Context, key string) (*model.StoredFile, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE storage_key = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, key))
}

func scanFile(row *sql.Row) (*model.StoredFile, error) {
	var f model.StoredFile
	if err := row.Scan(
		&f.ID,
		&f.StorageKey,
		&f.Name,
		&f.Size,
		&f.Category,
		&f.Width,
		&f.Height,
		&f.Duration,
		&f.Position,
		&f.Active,
		&f.ThumbnailKey,
		&f.OwnerID,
		&f.OwnerType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
