package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clearbooks/internal/port"
)

// MockVendorNormalizer is a mock implementation of port.VendorNormalizer.
type MockVendorNormalizer struct {
	mock.Mock
}

func (m *MockVendorNormalizer) NormalizeVendor(ctx context.Context, rawName string) (*port.VendorResult, error) {
	args := m.Called(ctx, rawName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.VendorResult), args.Error(1)
}
