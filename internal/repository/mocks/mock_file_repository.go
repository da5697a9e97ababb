package mocks

import (
	"context"

	"materialapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileRepository) FindByKey(ctx context.Context, key string) (*model.StoredFile, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}
