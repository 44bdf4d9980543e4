package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

type metricRepo struct {
	db *sqlx.DB
}

// NewMetricRepo creates a new PostgreSQL-backed MonthlyMetricRepository.
func NewMetricRepo(db *sqlx.DB) port.MonthlyMetricRepository {
	return &metricRepo{db: db}
}

// Upsert writes one (month, department) metric row; a re-ingested summary
// document overwrites the previous totals for the same cell.
func (r *metricRepo) Upsert(ctx context.Context, metric *domain.MonthlyMetric) error {
	metric.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_metrics (
			id, organization_id, document_id, month, department_id,
			expenses, revenue, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (organization_id, month, department_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			expenses = EXCLUDED.expenses,
			revenue = EXCLUDED.revenue`,
		metric.ID, metric.OrganizationID, metric.DocumentID, metric.Month, metric.DepartmentID,
		metric.Expenses, metric.Revenue, metric.CreatedAt)
	if err != nil {
		return fmt.Errorf("metricRepo.Upsert: %w", err)
	}
	return nil
}
