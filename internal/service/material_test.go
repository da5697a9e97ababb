package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"materialapi/internal/model"
	"materialapi/internal/repository"
	repoMocks "materialapi/internal/repository/mocks"
	storeMocks "materialapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMaterialService_Link(t *testing.T) {
	ctx := context.Background()

	file := &model.StoredFile{
		ID:         "F1",
		StorageKey: "uploads/INSTRUCTOR/u1/abc.png",
		Name:       "photo.png",
		Size:       2048,
		Category:   model.CategoryImage,
	}

	in := LinkMaterialInput{
		FileID:       "F1",
		FileKey:      file.StorageKey,
		Title:        "photo.png",
		FileName:     "photo.png",
		FileSize:     2048,
		FileType:     model.CategoryImage,
		ThumbnailURL: "http://base/api/v2/file/download/" + file.StorageKey,
		OwnerID:      "u1",
		OwnerType:    model.OwnerInstructor,
	}

	t.Run("happy path", func(t *testing.T) {
		mFiles := new(repoMocks.MockFileRepository)
		mRepo := new(repoMocks.MockMaterialRepository)

		mFiles.On("FindByID", ctx, "F1").Return(file, nil)
		mRepo.On("Create", ctx, mock.MatchedBy(func(m *model.Material) bool {
			return m.FileKey == file.StorageKey && m.EntityKind == model.EntityAssignment && m.EntityID == "A1"
		})).Return(&model.Material{ID: "M1", FileID: "F1", FileKey: file.StorageKey}, nil)

		svc := NewMaterialService(mRepo, mFiles, nil, "")
		stored, err := svc.Link(ctx, model.EntityAssignment, "A1", in)
		assert.NoError(t, err)
		assert.Equal(t, "M1", stored.ID)
		assert.Equal(t, file.StorageKey, stored.FileKey)
		mFiles.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("defaults filled from registered file", func(t *testing.T) {
		mFiles := new(repoMocks.MockFileRepository)
		mRepo := new(repoMocks.MockMaterialRepository)

		mFiles.On("FindByID", ctx, "F1").Return(file, nil)
		mRepo.On("Create", ctx, mock.MatchedBy(func(m *model.Material) bool {
			return m.Title == "photo.png" && m.FileSize == 2048 && m.FileType == model.CategoryImage
		})).Return(&model.Material{ID: "M2"}, nil)

		sparse := LinkMaterialInput{FileID: "F1"}
		svc := NewMaterialService(mRepo, mFiles, nil, "")
		_, err := svc.Link(ctx, model.EntityLecture, "L1", sparse)
		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("thumbnail url derived from public base", func(t *testing.T) {
		mFiles := new(repoMocks.MockFileRepository)
		mRepo := new(repoMocks.MockMaterialRepository)

		mFiles.On("FindByID", ctx, "F1").Return(file, nil)
		mRepo.On("Create", ctx, mock.MatchedBy(func(m *model.Material) bool {
			return m.ThumbnailURL == "http://cdn.example.com/api/v2/file/download/"+file.StorageKey
		})).Return(&model.Material{ID: "M3"}, nil)

		sparse := LinkMaterialInput{FileID: "F1"}
		svc := NewMaterialService(mRepo, mFiles, nil, "http://cdn.example.com/")
		_, err := svc.Link(ctx, model.EntityAssignment, "A1", sparse)
		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("no thumbnail url for non-thumbnail files", func(t *testing.T) {
		pdf := &model.StoredFile{ID: "F2", StorageKey: "uploads/INSTRUCTOR/u1/doc.pdf", Name: "doc.pdf", Size: 100, Category: model.CategoryFile}

		mFiles := new(repoMocks.MockFileRepository)
		mRepo := new(repoMocks.MockMaterialRepository)

		mFiles.On("FindByID", ctx, "F2").Return(pdf, nil)
		mRepo.On("Create", ctx, mock.MatchedBy(func(m *model.Material) bool {
			return m.ThumbnailURL == ""
		})).Return(&model.Material{ID: "M4"}, nil)

		svc := NewMaterialService(mRepo, mFiles, nil, "http://cdn.example.com")
		_, err := svc.Link(ctx, model.EntityAssignment, "A1", LinkMaterialInput{FileID: "F2"})
		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("unregistered file id", func(t *testing.T) {
		mFiles := new(repoMocks.MockFileRepository)
		mFiles.On("FindByID", ctx, "F1").Return(nil, sql.ErrNoRows)

		svc := NewMaterialService(nil, mFiles, nil, "")
		_, err := svc.Link(ctx, model.EntityAssignment, "A1", in)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("key mismatch", func(t *testing.T) {
		mFiles := new(repoMocks.MockFileRepository)
		mFiles.On("FindByID", ctx, "F1").Return(file, nil)

		bad := in
		bad.FileKey = "uploads/other/key.png"
		svc := NewMaterialService(nil, mFiles, nil, "")
		_, err := svc.Link(ctx, model.EntityAssignment, "A1", bad)
		assert.ErrorIs(t, err, ErrFileKeyMismatch)
	})

	t.Run("validation - missing file id", func(t *testing.T) {
		svc := NewMaterialService(nil, nil, nil, "")
		_, err := svc.Link(ctx, model.EntityAssignment, "A1", LinkMaterialInput{})
		assert.ErrorIs(t, err, ErrFileIDRequired)
	})

	t.Run("validation - missing entity id", func(t *testing.T) {
		svc := NewMaterialService(nil, nil, nil, "")
		_, err := svc.Link(ctx, model.EntityAssignment, "", in)
		assert.ErrorIs(t, err, ErrEntityRequired)
	})
}

func TestMaterialService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("ListByEntity", ctx, model.EntityAssignment, "A1", repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Material]{
				Items: []model.Material{{ID: "M1"}, {ID: "M2"}},
				Total: 2,
			}, nil)

		svc := NewMaterialService(mRepo, nil, nil, "")
		res, err := svc.List(ctx, model.EntityAssignment, "A1", 10, 0)
		assert.NoError(t, err)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("pagination boundary - zero limit uses default", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("ListByEntity", ctx, model.EntityLecture, "L1", repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Material]{Items: []model.Material{}, Total: 0}, nil)

		svc := NewMaterialService(mRepo, nil, nil, "")
		_, err := svc.List(ctx, model.EntityLecture, "L1", 0, -1)
		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("ListByEntity", ctx, model.EntityAssignment, "A1", mock.Anything).
			Return(nil, errors.New("db fail"))

		svc := NewMaterialService(mRepo, nil, nil, "")
		_, err := svc.List(ctx, model.EntityAssignment, "A1", 10, 0)
		assert.Error(t, err)
	})
}

func TestMaterialService_Delete(t *testing.T) {
	ctx := context.Background()

	stored := &model.Material{ID: "M1", EntityKind: model.EntityAssignment, EntityID: "A1"}

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("FindByID", ctx, "M1").Return(stored, nil)
		mRepo.On("Delete", ctx, "M1").Return(nil)

		svc := NewMaterialService(mRepo, nil, nil, "")
		assert.NoError(t, svc.Delete(ctx, model.EntityAssignment, "A1", "M1", false))
		mRepo.AssertExpectations(t)
	})

	t.Run("purge removes the storage object", func(t *testing.T) {
		withKey := &model.Material{ID: "M1", EntityKind: model.EntityAssignment, EntityID: "A1", FileKey: "uploads/INSTRUCTOR/u1/abc.png"}

		mRepo := new(repoMocks.MockMaterialRepository)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("FindByID", ctx, "M1").Return(withKey, nil)
		mRepo.On("Delete", ctx, "M1").Return(nil)
		mStore.On("Delete", ctx, withKey.FileKey).Return(nil)

		svc := NewMaterialService(mRepo, nil, mStore, "")
		assert.NoError(t, svc.Delete(ctx, model.EntityAssignment, "A1", "M1", true))
		mRepo.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("purge failure surfaces after row delete", func(t *testing.T) {
		withKey := &model.Material{ID: "M1", EntityKind: model.EntityAssignment, EntityID: "A1", FileKey: "uploads/INSTRUCTOR/u1/abc.png"}

		mRepo := new(repoMocks.MockMaterialRepository)
		mStore := new(storeMocks.MockStorage)
		mRepo.On("FindByID", ctx, "M1").Return(withKey, nil)
		mRepo.On("Delete", ctx, "M1").Return(nil)
		mStore.On("Delete", ctx, withKey.FileKey).Return(errors.New("storage down"))

		svc := NewMaterialService(mRepo, nil, mStore, "")
		err := svc.Delete(ctx, model.EntityAssignment, "A1", "M1", true)
		assert.ErrorContains(t, err, "purge storage object")
	})

	t.Run("wrong entity", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("FindByID", ctx, "M1").Return(stored, nil)

		svc := NewMaterialService(mRepo, nil, nil, "")
		err := svc.Delete(ctx, model.EntityLecture, "A1", "M1", false)
		assert.ErrorIs(t, err, ErrMaterialNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		svc := NewMaterialService(mRepo, nil, nil, "")
		err := svc.Delete(ctx, model.EntityAssignment, "A1", "missing", false)
		assert.ErrorIs(t, err, ErrMaterialNotFound)
	})

	t.Run("validation - empty id", func(t *testing.T) {
		svc := NewMaterialService(nil, nil, nil, "")
		err := svc.Delete(ctx, model.EntityAssignment, "A1", "", false)
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}
