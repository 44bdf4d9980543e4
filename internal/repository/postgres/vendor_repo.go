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

type vendorRepo struct {
	db *sqlx.DB
}

// NewVendorRepo creates a new PostgreSQL-backed VendorRepository.
func NewVendorRepo(db *sqlx.DB) port.VendorRepository {
	return &vendorRepo{db: db}
}

// FindOrCreate resolves the canonical vendor row for (orgID, cleanName).
// Try-insert with ON CONFLICT DO NOTHING, then re-read: under concurrent
// batches both callers converge on the first-created row without ever holding
// a lock across the batch.
func (r *vendorRepo) FindOrCreate(ctx context.Context, orgID uuid.UUID, cleanName string, isRecurring bool) (*domain.Vendor, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vendors (id, organization_id, clean_name, is_recurring, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (organization_id, clean_name) DO NOTHING`,
		uuid.New(), orgID, cleanName, isRecurring, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("vendorRepo.FindOrCreate insert: %w", err)
	}

	var vendor domain.Vendor
	err = r.db.GetContext(ctx, &vendor,
		"SELECT * FROM vendors WHERE organization_id = $1 AND clean_name = $2",
		orgID, cleanName)
	if err != nil {
		return nil, fmt.Errorf("vendorRepo.FindOrCreate select: %w", err)
	}
	return &vendor, nil
}

func (r *vendorRepo) GetByID(ctx context.Context, orgID, vendorID uuid.UUID) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := r.db.GetContext(ctx, &vendor,
		"SELECT * FROM vendors WHERE id = $1 AND organization_id = $2", vendorID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("vendorRepo.GetByID: %w", err)
	}
	return &vendor, nil
}
