package mocks

import (
	"context"

	"materialapi/internal/model"
	"materialapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) Create(ctx context.Context, mat *model.Material) (*model.Material, error) {
	args := m.Called(ctx, mat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByID(ctx context.Context, id string) (*model.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) ListByEntity(ctx context.Context, kind model.EntityKind, entityID string, pq repository.PageQuery) (*repository.PageResult[model.Material], error) {
	args := m.Called(ctx, kind, entityID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Material]), args.Error(1)
}

func (m *MockMaterialRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
