package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

// ReviewService defines the human-review contract over matches and
// discrepancies. All transitions run under the repositories' optimistic
// version check; a concurrent reviewer surfaces as ErrStaleRecord.
type ReviewService interface {
	ListPendingMatches(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Match, int, error)
	ListOpenDiscrepancies(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Discrepancy, int, error)
	ConfirmMatch(ctx context.Context, orgID, matchID, reviewerID uuid.UUID) (*domain.Match, error)
	RejectMatch(ctx context.Context, orgID, matchID, reviewerID uuid.UUID) (*domain.Match, error)
	ResolveDiscrepancy(ctx context.Context, orgID, discrepancyID, reviewerID uuid.UUID, outcome domain.DiscrepancyState) (*domain.Discrepancy, error)
}

type reviewService struct {
	matchRepo port.MatchRepository
	discRepo  port.DiscrepancyRepository
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(matchRepo port.MatchRepository, discRepo port.DiscrepancyRepository) ReviewService {
	return &reviewService{
		matchRepo: matchRepo,
		discRepo:  discRepo,
	}
}

func (s *reviewService) ListPendingMatches(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Match, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.matchRepo.ListPending(ctx, orgID, offset, limit)
}

func (s *reviewService) ListOpenDiscrepancies(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Discrepancy, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.discRepo.ListOpen(ctx, orgID, offset, limit)
}

// ConfirmMatch moves a pending match to confirmed. It fails with
// ErrMatchConflict when another confirmed match already claims either side;
// neither match's state changes in that case.
func (s *reviewService) ConfirmMatch(ctx context.Context, orgID, matchID, reviewerID uuid.UUID) (*domain.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, orgID, matchID)
	if err != nil {
		return nil, err
	}
	if m.State != domain.MatchPending {
		return nil, domain.ErrMatchNotPending
	}

	claimed, err := s.matchRepo.CountConfirmedForSides(ctx, orgID, m.TransactionID, m.InvoiceID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("reviewService.ConfirmMatch: %w", err)
	}
	if claimed > 0 {
		return nil, domain.ErrMatchConflict
	}

	now := time.Now().UTC()
	m.State = domain.MatchConfirmed
	m.DecidedBy = &reviewerID
	m.DecidedAt = &now
	if err := s.matchRepo.UpdateState(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RejectMatch moves a pending match to rejected; the underlying transaction
// and invoice become eligible for re-matching on the next run.
func (s *reviewService) RejectMatch(ctx context.Context, orgID, matchID, reviewerID uuid.UUID) (*domain.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, orgID, matchID)
	if err != nil {
		return nil, err
	}
	if m.State != domain.MatchPending {
		return nil, domain.ErrMatchNotPending
	}

	now := time.Now().UTC()
	m.State = domain.MatchRejected
	m.DecidedBy = &reviewerID
	m.DecidedAt = &now
	if err := s.matchRepo.UpdateState(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *reviewService) ResolveDiscrepancy(ctx context.Context, orgID, discrepancyID, reviewerID uuid.UUID, outcome domain.DiscrepancyState) (*domain.Discrepancy, error) {
	if outcome != domain.DiscrepancyResolved && outcome != domain.DiscrepancyIgnored {
		return nil, fmt.Errorf("reviewService.ResolveDiscrepancy: invalid outcome %q", outcome)
	}

	d, err := s.discRepo.GetByID(ctx, orgID, discrepancyID)
	if err != nil {
		return nil, err
	}
	if d.State != domain.DiscrepancyOpen {
		return nil, domain.ErrDiscrepancyNotOpen
	}

	now := time.Now().UTC()
	d.State = outcome
	d.ResolvedBy = &reviewerID
	d.ResolvedAt = &now
	if err := s.discRepo.UpdateState(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
