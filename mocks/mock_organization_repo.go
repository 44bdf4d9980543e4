package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockOrganizationRepo is a mock implementation of port.OrganizationRepository.
type MockOrganizationRepo struct {
	mock.Mock
}

func (m *MockOrganizationRepo) GetByID(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationRepo) ListActive(ctx context.Context) ([]domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Organization), args.Error(1)
}
