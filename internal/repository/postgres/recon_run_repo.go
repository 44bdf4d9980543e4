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

type reconRunRepo struct {
	db *sqlx.DB
}

// NewReconRunRepo creates a new PostgreSQL-backed ReconRunRepository.
func NewReconRunRepo(db *sqlx.DB) port.ReconRunRepository {
	return &reconRunRepo{db: db}
}

func (r *reconRunRepo) Create(ctx context.Context, run *domain.ReconRun) error {
	run.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recon_runs (
			id, organization_id, window_start, window_end, status,
			idempotency_key, confirmed_count, pending_count, discrepancy_count,
			error, started_at, finished_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		run.ID, run.OrganizationID, run.WindowStart, run.WindowEnd, run.Status,
		run.IdempotencyKey, run.ConfirmedCount, run.PendingCount, run.DiscrepancyCount,
		run.Error, run.StartedAt, run.FinishedAt, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("reconRunRepo.Create: %w", err)
	}
	return nil
}

func (r *reconRunRepo) GetByID(ctx context.Context, orgID, runID uuid.UUID) (*domain.ReconRun, error) {
	var run domain.ReconRun
	err := r.db.GetContext(ctx, &run,
		"SELECT * FROM recon_runs WHERE id = $1 AND organization_id = $2", runID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reconRunRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *reconRunRepo) GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.ReconRun, error) {
	var run domain.ReconRun
	err := r.db.GetContext(ctx, &run,
		"SELECT * FROM recon_runs WHERE organization_id = $1 AND idempotency_key = $2",
		orgID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reconRunRepo.GetByIdempotencyKey: %w", err)
	}
	return &run, nil
}

func (r *reconRunRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.ReconRun, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM recon_runs WHERE organization_id = $1", orgID)
	if err != nil {
		return nil, 0, fmt.Errorf("reconRunRepo.ListByOrganization count: %w", err)
	}

	var runs []domain.ReconRun
	err = r.db.SelectContext(ctx, &runs,
		`SELECT * FROM recon_runs WHERE organization_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("reconRunRepo.ListByOrganization: %w", err)
	}
	return runs, total, nil
}

func (r *reconRunRepo) Update(ctx context.Context, run *domain.ReconRun) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recon_runs SET
			status = $1, confirmed_count = $2, pending_count = $3,
			discrepancy_count = $4, error = $5, started_at = $6, finished_at = $7
		 WHERE id = $8 AND organization_id = $9`,
		run.Status, run.ConfirmedCount, run.PendingCount,
		run.DiscrepancyCount, run.Error, run.StartedAt, run.FinishedAt,
		run.ID, run.OrganizationID)
	if err != nil {
		return fmt.Errorf("reconRunRepo.Update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reconRunRepo.Update rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
