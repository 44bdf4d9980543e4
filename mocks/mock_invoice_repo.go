package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) UpsertByExternalID(ctx context.Context, inv *domain.ExternalInvoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.ExternalInvoice, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalInvoice), args.Error(1)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.ExternalInvoice, error) {
	args := m.Called(ctx, orgID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExternalInvoice), args.Error(1)
}
