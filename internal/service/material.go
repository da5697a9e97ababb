package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"materialapi/internal/fileclass"
	"materialapi/internal/model"
	"materialapi/internal/repository"
	"materialapi/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrEntityRequired   = errors.New("entity id is required")
	ErrFileIDRequired   = errors.New("file id is required")
	ErrFileKeyMismatch  = errors.New("file key does not match the registered file")
	ErrMaterialNotFound = errors.New("material not found")
)

// LinkMaterialInput carries the fields needed to attach a registered file to
// a domain entity.
type LinkMaterialInput struct {
	FileID       string
	FileKey      string
	Title        string
	FileName     string
	FileSize     int64
	FileType     model.Category
	ThumbnailURL string
	OwnerID      string
	OwnerType    model.OwnerType
}

// MaterialListResult is the service-level DTO for paginated materials.
type MaterialListResult struct {
	Items []model.Material `json:"data"`
	Total int              `json:"total"`
}

// MaterialService defines the use cases for entity/material links.
type MaterialService interface {
	// Link attaches a registered file to an entity. The file id must come
	// from a completed upload; linking an unregistered file fails.
	Link(ctx context.Context, kind model.EntityKind, entityID string, in LinkMaterialInput) (*model.Material, error)

	// List returns the materials attached to an entity using limit/offset
	// and a total count.
	List(ctx context.Context, kind model.EntityKind, entityID string, limit, offset int) (*MaterialListResult, error)

	// Delete removes a material record. By default the storage object is
	// kept; the file stays registered and can be linked again. With purgeFile
	// the object is also removed from storage.
	Delete(ctx context.Context, kind model.EntityKind, entityID, materialID string, purgeFile bool) error
}

type materialService struct {
	repo          repository.MaterialRepository
	files         repository.FileRepository
	store         storage.Storage
	publicBaseURL string
}

// NewMaterialService constructs a new MaterialService. publicBaseURL is the
// externally reachable base of this API; thumbnail URLs default to its
// download endpoint when the client does not supply one.
func NewMaterialService(repo repository.MaterialRepository, files repository.FileRepository, store storage.Storage, publicBaseURL string) MaterialService {
	return &materialService{
		repo:          repo,
		files:         files,
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *materialService) Link(ctx context.Context, kind model.EntityKind, entityID string, in LinkMaterialInput) (*model.Material, error) {
	if entityID == "" {
		return nil, ErrEntityRequired
	}
	if in.FileID == "" {
		return nil, ErrFileIDRequired
	}

	// A material must reference a file registered by the completion stage.
	f, err := s.files.FindByID(ctx, in.FileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if in.FileKey != "" && in.FileKey != f.StorageKey {
		return nil, ErrFileKeyMismatch
	}

	title := in.Title
	if title == "" {
		title = f.Name
	}
	fileName := in.FileName
	if fileName == "" {
		fileName = f.Name
	}
	fileSize := in.FileSize
	if fileSize == 0 {
		fileSize = f.Size
	}
	fileType := in.FileType
	if fileType == "" {
		fileType = f.Category
	}
	thumbnailURL := in.ThumbnailURL
	if thumbnailURL == "" && fileclass.HasThumbnail(f.Name) {
		thumbnailURL = s.publicBaseURL + "/api/v2/file/download/" + f.StorageKey
	}

	m := &model.Material{
		ID:           uuid.New().String(),
		EntityKind:   kind,
		EntityID:     entityID,
		FileID:       f.ID,
		FileKey:      f.StorageKey,
		Title:        title,
		FileName:     fileName,
		FileSize:     fileSize,
		FileType:     fileType,
		ThumbnailURL: thumbnailURL,
		OwnerID:      in.OwnerID,
		OwnerType:    in.OwnerType,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("link material: %w", err)
	}
	return stored, nil
}

// List returns paginated materials without exposing repository types.
func (s *materialService) List(ctx context.Context, kind model.EntityKind, entityID string, limit, offset int) (*MaterialListResult, error) {
	if entityID == "" {
		return nil, ErrEntityRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByEntity(ctx, kind, entityID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &MaterialListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes a material after checking it belongs to the given entity.
func (s *materialService) Delete(ctx context.Context, kind model.EntityKind, entityID, materialID string, purgeFile bool) error {
	if materialID == "" {
		return ErrIDRequired
	}
	m, err := s.repo.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMaterialNotFound
		}
		return err
	}
	if m.EntityKind != kind || m.EntityID != entityID {
		return ErrMaterialNotFound
	}
	if err := s.repo.Delete(ctx, materialID); err != nil {
		return err
	}
	if purgeFile && m.FileKey != "" {
		if err := s.store.Delete(ctx, m.FileKey); err != nil {
			return fmt.Errorf("purge storage object: %w", err)
		}
	}
	return nil
}
