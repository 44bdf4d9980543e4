package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockDepartmentRepo is a mock implementation of port.DepartmentRepository.
type MockDepartmentRepo struct {
	mock.Mock
}

func (m *MockDepartmentRepo) FindOrCreate(ctx context.Context, orgID uuid.UUID, name string) (*domain.Department, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Department), args.Error(1)
}
