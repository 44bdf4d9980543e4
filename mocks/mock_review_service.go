package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clearbooks/internal/domain"
)

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListPendingMatches(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Match, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Match), args.Int(1), args.Error(2)
}

func (m *MockReviewService) ListOpenDiscrepancies(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Discrepancy, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Discrepancy), args.Int(1), args.Error(2)
}

func (m *MockReviewService) ConfirmMatch(ctx context.Context, orgID, matchID, reviewerID uuid.UUID) (*domain.Match, error) {
	args := m.Called(ctx, orgID, matchID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

func (m *MockReviewService) RejectMatch(ctx context.Context, orgID, matchID, reviewerID uuid.UUID) (*domain.Match, error) {
	args := m.Called(ctx, orgID, matchID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

func (m *MockReviewService) ResolveDiscrepancy(ctx context.Context, orgID, discrepancyID, reviewerID uuid.UUID, outcome domain.DiscrepancyState) (*domain.Discrepancy, error) {
	args := m.Called(ctx, orgID, discrepancyID, reviewerID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discrepancy), args.Error(1)
}
