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

type discrepancyRepo struct {
	db *sqlx.DB
}

// NewDiscrepancyRepo creates a new PostgreSQL-backed DiscrepancyRepository.
func NewDiscrepancyRepo(db *sqlx.DB) port.DiscrepancyRepository {
	return &discrepancyRepo{db: db}
}

func (r *discrepancyRepo) Create(ctx context.Context, d *domain.Discrepancy) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO discrepancies (
			id, organization_id, kind, transaction_id, invoice_id,
			amount_delta, detail, state, version, resolved_by, resolved_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.OrganizationID, d.Kind, d.TransactionID, d.InvoiceID,
		d.AmountDelta, d.Detail, d.State, d.Version, d.ResolvedBy, d.ResolvedAt,
		d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("discrepancyRepo.Create: %w", err)
	}
	return nil
}

func (r *discrepancyRepo) GetByID(ctx context.Context, orgID, discrepancyID uuid.UUID) (*domain.Discrepancy, error) {
	var d domain.Discrepancy
	err := r.db.GetContext(ctx, &d,
		"SELECT * FROM discrepancies WHERE id = $1 AND organization_id = $2", discrepancyID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("discrepancyRepo.GetByID: %w", err)
	}
	return &d, nil
}

func (r *discrepancyRepo) ListOpen(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Discrepancy, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM discrepancies WHERE organization_id = $1 AND state = $2",
		orgID, domain.DiscrepancyOpen)
	if err != nil {
		return nil, 0, fmt.Errorf("discrepancyRepo.ListOpen count: %w", err)
	}

	var discs []domain.Discrepancy
	err = r.db.SelectContext(ctx, &discs,
		`SELECT * FROM discrepancies WHERE organization_id = $1 AND state = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, domain.DiscrepancyOpen, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("discrepancyRepo.ListOpen: %w", err)
	}
	return discs, total, nil
}

// ListOpenByWindow scopes open discrepancies to the run window through the
// referenced transaction's date or invoice's issue date. Single-sided rows
// only carry one of the two references.
func (r *discrepancyRepo) ListOpenByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Discrepancy, error) {
	var discs []domain.Discrepancy
	err := r.db.SelectContext(ctx, &discs,
		`SELECT d.* FROM discrepancies d
		 LEFT JOIN transactions t ON t.id = d.transaction_id
		 LEFT JOIN external_invoices i ON i.id = d.invoice_id
		 WHERE d.organization_id = $1 AND d.state = $2
		   AND (
			(t.txn_date >= $3 AND t.txn_date <= $4)
			OR (i.issued_on >= $3 AND i.issued_on <= $4)
		   )
		 ORDER BY d.created_at`,
		orgID, domain.DiscrepancyOpen, from, to)
	if err != nil {
		return nil, fmt.Errorf("discrepancyRepo.ListOpenByWindow: %w", err)
	}
	return discs, nil
}

// UpdateState follows the same optimistic version discipline as matches.
func (r *discrepancyRepo) UpdateState(ctx context.Context, d *domain.Discrepancy) error {
	d.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE discrepancies SET
			state = $1, version = version + 1, resolved_by = $2,
			resolved_at = $3, updated_at = $4
		 WHERE id = $5 AND organization_id = $6 AND version = $7`,
		d.State, d.ResolvedBy, d.ResolvedAt, d.UpdatedAt,
		d.ID, d.OrganizationID, d.Version)
	if err != nil {
		return fmt.Errorf("discrepancyRepo.UpdateState: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("discrepancyRepo.UpdateState rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrStaleRecord
	}
	d.Version++
	return nil
}
