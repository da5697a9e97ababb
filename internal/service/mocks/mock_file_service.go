package mocks

import (
	"context"
	"io"

	"materialapi/internal/model"
	"materialapi/internal/service"
	"materialapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) GrantUpload(ctx context.Context, fileName, ownerID string, ownerType model.OwnerType, userID string) (*model.UploadGrant, error) {
	args := m.Called(ctx, fileName, ownerID, ownerType, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadGrant), args.Error(1)
}

func (m *MockFileService) CompleteUpload(ctx context.Context, in service.CompleteUploadInput) (*model.StoredFile, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.String(2), args.Error(3)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.String(2), args.Error(3)
}

func (m *MockFileService) PresignDownload(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
