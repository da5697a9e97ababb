package postgres

import (
	"context"
	"database/sql"

	"materialapi/internal/model"
	"materialapi/internal/repository"
)

// MaterialPostgres is a PostgreSQL implementation of repository.MaterialRepository.
type MaterialPostgres struct {
	db *sql.DB
}

// NewMaterialPostgres creates a new MaterialPostgres repository.
func NewMaterialPostgres(db *sql.DB) *MaterialPostgres {
	return &MaterialPostgres{db: db}
}

var _ repository.MaterialRepository = (*MaterialPostgres)(nil)

const materialColumns = `id, entity_kind, entity_id, file_id, file_key, title, file_name, file_size, file_type, thumbnail_url, owner_id, owner_type, created_at`

// Create inserts a new material row and returns the stored record.
func (r *MaterialPostgres) Create(ctx context.Context, m *model.Material) (*model.Material, error) {
	const q = `
		INSERT INTO materials (id, entity_kind, entity_id, file_id, file_key, title, file_name, file_size, file_type, thumbnail_url, owner_id, owner_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + materialColumns
	row := r.db.QueryRowContext(ctx, q,
		m.ID,
		m.EntityKind,
		m.EntityID,
		m.FileID,
		m.FileKey,
		m.Title,
		m.FileName,
		m.FileSize,
		m.FileType,
		m.ThumbnailURL,
		m.OwnerID,
		m.OwnerType,
		m.CreatedAt,
	)
	return scanMaterial(row)
}

// FindByID fetches a single material by its ID.
func (r *MaterialPostgres) FindByID(ctx context.Context, id string) (*model.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`
	return scanMaterial(r.db.QueryRowContext(ctx, q, id))
}

// ListByEntity returns materials for one entity using LIMIT/OFFSET pagination and a total count.
func (r *MaterialPostgres) ListByEntity(ctx context.Context, kind model.EntityKind, entityID string, pq repository.PageQuery) (*repository.PageResult[model.Material], error) {
	const qCount = `SELECT COUNT(*) FROM materials WHERE entity_kind = $1 AND entity_id = $2`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, kind, entityID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + materialColumns + `
		FROM materials
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, qList, kind, entityID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Material, 0)
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(
			&m.ID,
			&m.EntityKind,
			&m.EntityID,
			&m.FileID,
			&m.FileKey,
			&m.Title,
			&m.FileName,
			&m.FileSize,
			&m.FileType,
			&m.ThumbnailURL,
			&m.OwnerID,
			&m.OwnerType,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Material]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a material by ID. It does not return an error if the row does not exist.
func (r *MaterialPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM materials WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func scanMaterial(row *sql.Row) (*model.Material, error) {
	var m model.Material
	if err := row.Scan(
		&m.ID,
		&m.EntityKind,
		&m.EntityID,
		&m.FileID,
		&m.FileKey,
		&m.Title,
		&m.FileName,
		&m.FileSize,
		&m.FileType,
		&m.ThumbnailURL,
		&m.OwnerID,
		&m.OwnerType,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
