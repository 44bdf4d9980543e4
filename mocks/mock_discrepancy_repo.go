package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockDiscrepancyRepo is a mock implementation of port.DiscrepancyRepository.
type MockDiscrepancyRepo struct {
	mock.Mock
}

func (m *MockDiscrepancyRepo) Create(ctx context.Context, d *domain.Discrepancy) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDiscrepancyRepo) GetByID(ctx context.Context, orgID, discrepancyID uuid.UUID) (*domain.Discrepancy, error) {
	args := m.Called(ctx, orgID, discrepancyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discrepancy), args.Error(1)
}

func (m *MockDiscrepancyRepo) ListOpen(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Discrepancy, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Discrepancy), args.Int(1), args.Error(2)
}

func (m *MockDiscrepancyRepo) ListOpenByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Discrepancy, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Discrepancy), args.Error(1)
}

func (m *MockDiscrepancyRepo) UpdateState(ctx context.Context, d *domain.Discrepancy) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
