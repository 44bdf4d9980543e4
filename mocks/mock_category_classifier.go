package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCategoryClassifier is a mock implementation of port.CategoryClassifier.
type MockCategoryClassifier struct {
	mock.Mock
}

func (m *MockCategoryClassifier) Classify(ctx context.Context, vendor, description string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, vendor, description, amount)
	return args.String(0), args.Error(1)
}
