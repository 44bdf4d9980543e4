package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clearbooks/internal/domain"
)

// InvoiceRepository stores external invoices mirrored from the accounting feed.
type InvoiceRepository interface {
	UpsertByExternalID(ctx context.Context, inv *domain.ExternalInvoice) error
	ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.ExternalInvoice, error)
	GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.ExternalInvoice, error)
}

// MatchRepository defines the contract for match persistence.
type MatchRepository interface {
	Create(ctx context.Context, m *domain.Match) error
	GetByID(ctx context.Context, orgID, matchID uuid.UUID) (*domain.Match, error)
	// ListByPair returns all matches for the (transaction, invoice) pair in any state.
	ListByPair(ctx context.Context, orgID, txnID, invoiceID uuid.UUID) ([]domain.Match, error)
	ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Match, error)
	ListPending(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Match, int, error)
	// CountConfirmedForSides returns how many confirmed matches claim the
	// transaction or the invoice, excluding the given match id.
	CountConfirmedForSides(ctx context.Context, orgID, txnID, invoiceID, excludeMatchID uuid.UUID) (int, error)
	// UpdateState applies an optimistic-concurrency state transition: it only
	// succeeds when the stored version equals m.Version, then increments it.
	UpdateState(ctx context.Context, m *domain.Match) error
}

// DiscrepancyRepository defines the contract for discrepancy persistence.
type DiscrepancyRepository interface {
	Create(ctx context.Context, d *domain.Discrepancy) error
	GetByID(ctx context.Context, orgID, discrepancyID uuid.UUID) (*domain.Discrepancy, error)
	ListOpen(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Discrepancy, int, error)
	// ListOpenByWindow returns open discrepancies whose referenced transaction
	// or invoice falls inside the window, for idempotent re-runs.
	ListOpenByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Discrepancy, error)
	// UpdateState applies an optimistic-concurrency state transition, same
	// version discipline as MatchRepository.UpdateState.
	UpdateState(ctx context.Context, d *domain.Discrepancy) error
}

// ReconRunRepository tracks reconciliation run jobs.
type ReconRunRepository interface {
	Create(ctx context.Context, run *domain.ReconRun) error
	GetByID(ctx context.Context, orgID, runID uuid.UUID) (*domain.ReconRun, error)
	GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.ReconRun, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.ReconRun, int, error)
	Update(ctx context.Context, run *domain.ReconRun) error
}
