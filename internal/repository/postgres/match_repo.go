package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

type matchRepo struct {
	db *sqlx.DB
}

// NewMatchRepo creates a new PostgreSQL-backed MatchRepository.
func NewMatchRepo(db *sqlx.DB) port.MatchRepository {
	return &matchRepo{db: db}
}

func (r *matchRepo) Create(ctx context.Context, m *domain.Match) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO matches (
			id, organization_id, transaction_id, invoice_id, confidence,
			state, version, decided_by, decided_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.OrganizationID, m.TransactionID, m.InvoiceID, m.Confidence,
		m.State, m.Version, m.DecidedBy, m.DecidedAt, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("matchRepo.Create: %w", err)
	}
	return nil
}

func (r *matchRepo) GetByID(ctx context.Context, orgID, matchID uuid.UUID) (*domain.Match, error) {
	var m domain.Match
	err := r.db.GetContext(ctx, &m,
		"SELECT * FROM matches WHERE id = $1 AND organization_id = $2", matchID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("matchRepo.GetByID: %w", err)
	}
	return &m, nil
}

func (r *matchRepo) ListByPair(ctx context.Context, orgID, txnID, invoiceID uuid.UUID) ([]domain.Match, error) {
	var matches []domain.Match
	err := r.db.SelectContext(ctx, &matches,
		`SELECT * FROM matches
		 WHERE organization_id = $1 AND transaction_id = $2 AND invoice_id = $3
		 ORDER BY created_at`,
		orgID, txnID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("matchRepo.ListByPair: %w", err)
	}
	return matches, nil
}

// ListByWindow returns matches whose transaction date falls in the window.
func (r *matchRepo) ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Match, error) {
	var matches []domain.Match
	err := r.db.SelectContext(ctx, &matches,
		`SELECT m.* FROM matches m
		 JOIN transactions t ON t.id = m.transaction_id
		 WHERE m.organization_id = $1 AND t.txn_date >= $2 AND t.txn_date <= $3
		 ORDER BY m.created_at`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("matchRepo.ListByWindow: %w", err)
	}
	return matches, nil
}

func (r *matchRepo) ListPending(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Match, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM matches WHERE organization_id = $1 AND state = $2",
		orgID, domain.MatchPending)
	if err != nil {
		return nil, 0, fmt.Errorf("matchRepo.ListPending count: %w", err)
	}

	var matches []domain.Match
	err = r.db.SelectContext(ctx, &matches,
		`SELECT * FROM matches WHERE organization_id = $1 AND state = $2
		 ORDER BY confidence DESC, created_at LIMIT $3 OFFSET $4`,
		orgID, domain.MatchPending, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("matchRepo.ListPending: %w", err)
	}
	return matches, total, nil
}

func (r *matchRepo) CountConfirmedForSides(ctx context.Context, orgID, txnID, invoiceID, excludeMatchID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM matches
		 WHERE organization_id = $1 AND state = $2 AND id != $3
		   AND (transaction_id = $4 OR invoice_id = $5)`,
		orgID, domain.MatchConfirmed, excludeMatchID, txnID, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("matchRepo.CountConfirmedForSides: %w", err)
	}
	return count, nil
}

// UpdateState writes a state transition guarded by the version column: the
// UPDATE only lands when the stored version still equals m.Version. A zero
// rows-affected result means a concurrent reviewer won; the caller gets
// ErrStaleRecord and must re-read.
func (r *matchRepo) UpdateState(ctx context.Context, m *domain.Match) error {
	m.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET
			state = $1, version = version + 1, decided_by = $2,
			decided_at = $3, updated_at = $4
		 WHERE id = $5 AND organization_id = $6 AND version = $7`,
		m.State, m.DecidedBy, m.DecidedAt, m.UpdatedAt,
		m.ID, m.OrganizationID, m.Version)
	if err != nil {
		return fmt.Errorf("matchRepo.UpdateState: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("matchRepo.UpdateState rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrStaleRecord
	}
	m.Version++
	return nil
}
