package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockVendorRepo is a mock implementation of port.VendorRepository.
type MockVendorRepo struct {
	mock.Mock
}

func (m *MockVendorRepo) FindOrCreate(ctx context.Context, orgID uuid.UUID, cleanName string, isRecurring bool) (*domain.Vendor, error) {
	args := m.Called(ctx, orgID, cleanName, isRecurring)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vendor), args.Error(1)
}

func (m *MockVendorRepo) GetByID(ctx context.Context, orgID, vendorID uuid.UUID) (*domain.Vendor, error) {
	args := m.Called(ctx, orgID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vendor), args.Error(1)
}
