package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockMetricRepo is a mock implementation of port.MonthlyMetricRepository.
type MockMetricRepo struct {
	mock.Mock
}

func (m *MockMetricRepo) Upsert(ctx context.Context, metric *domain.MonthlyMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}
