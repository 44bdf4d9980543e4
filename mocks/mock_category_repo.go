package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockCategoryRepo is a mock implementation of port.CategoryRepository.
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) FindOrCreate(ctx context.Context, orgID uuid.UUID, name string) (*domain.Category, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetByID(ctx context.Context, orgID, categoryID uuid.UUID) (*domain.Category, error) {
	args := m.Called(ctx, orgID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}
