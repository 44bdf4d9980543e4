package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clearbooks/internal/port"
)

// MockDigestSender is a mock implementation of port.DigestSender.
type MockDigestSender struct {
	mock.Mock
}

func (m *MockDigestSender) SendReviewDigest(ctx context.Context, toEmail, toName string, digest port.ReviewDigest) error {
	args := m.Called(ctx, toEmail, toName, digest)
	return args.Error(0)
}
