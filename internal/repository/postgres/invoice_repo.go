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

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

// UpsertByExternalID mirrors one feed invoice. The feed stays authoritative:
// a re-pull overwrites the mutable columns and keeps the local id stable.
func (r *invoiceRepo) UpsertByExternalID(ctx context.Context, inv *domain.ExternalInvoice) error {
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	err := r.db.GetContext(ctx, inv,
		`INSERT INTO external_invoices (
			id, organization_id, external_id, vendor_name, amount,
			issued_on, status, source, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (organization_id, source, external_id) DO UPDATE SET
			vendor_name = EXCLUDED.vendor_name,
			amount = EXCLUDED.amount,
			issued_on = EXCLUDED.issued_on,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		 RETURNING *`,
		inv.ID, inv.OrganizationID, inv.ExternalID, inv.VendorName, inv.Amount,
		inv.IssuedOn, inv.Status, inv.Source, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpsertByExternalID: %w", err)
	}
	return nil
}

func (r *invoiceRepo) ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.ExternalInvoice, error) {
	var invoices []domain.ExternalInvoice
	err := r.db.SelectContext(ctx, &invoices,
		`SELECT * FROM external_invoices
		 WHERE organization_id = $1 AND issued_on >= $2 AND issued_on <= $3
		 ORDER BY issued_on, external_id`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListByWindow: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.ExternalInvoice, error) {
	var inv domain.ExternalInvoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT * FROM external_invoices WHERE id = $1 AND organization_id = $2", invoiceID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}
