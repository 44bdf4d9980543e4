package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockMatchRepo is a mock implementation of port.MatchRepository.
type MockMatchRepo struct {
	mock.Mock
}

func (m *MockMatchRepo) Create(ctx context.Context, match *domain.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepo) GetByID(ctx context.Context, orgID, matchID uuid.UUID) (*domain.Match, error) {
	args := m.Called(ctx, orgID, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

func (m *MockMatchRepo) ListByPair(ctx context.Context, orgID, txnID, invoiceID uuid.UUID) ([]domain.Match, error) {
	args := m.Called(ctx, orgID, txnID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *MockMatchRepo) ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Match, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *MockMatchRepo) ListPending(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Match, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Match), args.Int(1), args.Error(2)
}

func (m *MockMatchRepo) CountConfirmedForSides(ctx context.Context, orgID, txnID, invoiceID, excludeMatchID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID, txnID, invoiceID, excludeMatchID)
	return args.Int(0), args.Error(1)
}

func (m *MockMatchRepo) UpdateState(ctx context.Context, match *domain.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}
