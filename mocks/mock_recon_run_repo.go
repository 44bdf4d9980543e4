package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockReconRunRepo is a mock implementation of port.ReconRunRepository.
type MockReconRunRepo struct {
	mock.Mock
}

func (m *MockReconRunRepo) Create(ctx context.Context, run *domain.ReconRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReconRunRepo) GetByID(ctx context.Context, orgID, runID uuid.UUID) (*domain.ReconRun, error) {
	args := m.Called(ctx, orgID, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconRun), args.Error(1)
}

func (m *MockReconRunRepo) GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.ReconRun, error) {
	args := m.Called(ctx, orgID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconRun), args.Error(1)
}

func (m *MockReconRunRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.ReconRun, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ReconRun), args.Int(1), args.Error(2)
}

func (m *MockReconRunRepo) Update(ctx context.Context, run *domain.ReconRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}
