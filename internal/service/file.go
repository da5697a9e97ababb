package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"materialapi/internal/fileclass"
	"materialapi/internal/model"
	"materialapi/internal/repository"
	"materialapi/internal/storage"
)

var (
	ErrFileNameRequired = errors.New("file name is required")
	ErrKeyRequired      = errors.New("storage key is required")
	ErrOwnerRequired    = errors.New("owner id and owner type are required")
	ErrInvalidOwnerType = errors.New("invalid owner type")
	ErrFileNotFound     = errors.New("file not found")
)

// CompleteUploadInput carries the metadata reported by a client once the
// binary has landed in object storage.
type CompleteUploadInput struct {
	Key          string
	Name         string
	Size         int64
	Category     model.Category
	Width        int
	Height       int
	Duration     float64
	Position     int
	Active       bool
	ThumbnailKey string
	OwnerID      string
	OwnerType    model.OwnerType
}

// FileService covers the server side of the presigned upload workflow:
// issuing grants, registering completed uploads, and streaming downloads.
type FileService interface {
	// GrantUpload issues a single-use presigned PUT URL plus the storage key
	// the binary will live under. No state is persisted; an unused grant
	// simply expires.
	GrantUpload(ctx context.Context, fileName, ownerID string, ownerType model.OwnerType, userID string) (*model.UploadGrant, error)

	// CompleteUpload registers the metadata of an uploaded binary and returns
	// the stored file with its server-assigned id.
	CompleteUpload(ctx context.Context, in CompleteUploadInput) (*model.StoredFile, error)

	// Download opens the object stored under key for streaming. The returned
	// name is the original upload name when the key is registered, otherwise
	// the key's base name.
	Download(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, string, error)

	// PresignDownload returns a time-limited URL the caller can fetch the
	// object from directly, bypassing this service for the byte transfer.
	PresignDownload(ctx context.Context, key string) (string, error)
}

type fileService struct {
	store      storage.Storage
	repo       repository.FileRepository
	presignTTL time.Duration
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, repo repository.FileRepository, presignTTL time.Duration) FileService {
	return &fileService{store: store, repo: repo, presignTTL: presignTTL}
}

func validOwnerType(t model.OwnerType) bool {
	switch t {
	case model.OwnerInstructor, model.OwnerStudent, model.OwnerUser:
		return true
	}
	return false
}

func (s *fileService) GrantUpload(ctx context.Context, fileName, ownerID string, ownerType model.OwnerType, userID string) (*model.UploadGrant, error) {
	if fileName == "" {
		return nil, ErrFileNameRequired
	}
	if ownerID == "" || ownerType == "" {
		return nil, ErrOwnerRequired
	}
	if !validOwnerType(ownerType) {
		return nil, ErrInvalidOwnerType
	}
	_ = userID // carried for auditing; the grant itself is owner-scoped

	// Key layout: uploads/{ownerType}/{ownerId}/{uuid}{ext}. The UUID keeps
	// re-uploads of the same name from overwriting each other.
	ext := filepath.Ext(fileName)
	key := fmt.Sprintf("uploads/%s/%s/%s%s", string(ownerType), ownerID, uuid.New().String(), ext)

	url, err := s.store.PresignPut(ctx, key, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &model.UploadGrant{UploadURL: url, StorageKey: key}, nil
}

func (s *fileService) CompleteUpload(ctx context.Context, in CompleteUploadInput) (*model.StoredFile, error) {
	if in.Key == "" {
		return nil, ErrKeyRequired
	}
	if in.Name == "" {
		return nil, ErrFileNameRequired
	}
	if in.OwnerID == "" || in.OwnerType == "" {
		return nil, ErrOwnerRequired
	}
	if !validOwnerType(in.OwnerType) {
		return nil, ErrInvalidOwnerType
	}

	category := in.Category
	if category == "" {
		category = fileclass.Classify("", in.Name)
	}

	f := &model.StoredFile{
		ID:           uuid.New().String(),
		StorageKey:   in.Key,
		Name:         in.Name,
		Size:         in.Size,
		Category:     category,
		Width:        in.Width,
		Height:       in.Height,
		Duration:     in.Duration,
		Position:     in.Position,
		Active:       in.Active,
		ThumbnailKey: in.ThumbnailKey,
		OwnerID:      in.OwnerID,
		OwnerType:    in.OwnerType,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("register upload: %w", err)
	}
	return stored, nil
}

func (s *fileService) Download(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, string, error) {
	if key == "" {
		return nil, storage.ObjectInfo{}, "", ErrKeyRequired
	}

	name := filepath.Base(key)
	f, err := s.repo.FindByKey(ctx, key)
	switch {
	case err == nil:
		name = f.Name
	case errors.Is(err, sql.ErrNoRows):
		// Unregistered keys (e.g. thumbnail copies) stream under their base name.
	default:
		return nil, storage.ObjectInfo{}, "", err
	}

	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, "", ErrFileNotFound
		}
		return nil, storage.ObjectInfo{}, "", fmt.Errorf("download from storage: %w", err)
	}
	return rc, info, name, nil
}

func (s *fileService) PresignDownload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrKeyRequired
	}
	// Presigning does not touch the object, so a missing key surfaces as a
	// storage 404 when the URL is fetched, same as the direct PUT stage.
	url, err := s.store.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}
