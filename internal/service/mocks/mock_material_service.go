package mocks

import (
	"context"

	"materialapi/internal/model"
	"materialapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockMaterialService struct {
	mock.Mock
}

func (m *MockMaterialService) Link(ctx context.Context, kind model.EntityKind, entityID string, in service.LinkMaterialInput) (*model.Material, error) {
	args := m.Called(ctx, kind, entityID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialService) List(ctx context.Context, kind model.EntityKind, entityID string, limit, offset int) (*service.MaterialListResult, error) {
	args := m.Called(ctx, kind, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MaterialListResult), args.Error(1)
}

func (m *MockMaterialService) Delete(ctx context.Context, kind model.EntityKind, entityID, materialID string, purgeFile bool) error {
	args := m.Called(ctx, kind, entityID, materialID, purgeFile)
	return args.Error(0)
}
