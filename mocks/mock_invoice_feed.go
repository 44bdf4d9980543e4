package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockInvoiceFeed is a mock implementation of port.InvoiceFeed.
type MockInvoiceFeed struct {
	mock.Mock
}

func (m *MockInvoiceFeed) ListInvoices(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.ExternalInvoice, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalInvoice), args.Error(1)
}
