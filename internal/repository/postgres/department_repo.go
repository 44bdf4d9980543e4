package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

type departmentRepo struct {
	db *sqlx.DB
}

// NewDepartmentRepo creates a new PostgreSQL-backed DepartmentRepository.
func NewDepartmentRepo(db *sqlx.DB) port.DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) FindOrCreate(ctx context.Context, orgID uuid.UUID, name string) (*domain.Department, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO departments (id, organization_id, name, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (organization_id, name) DO NOTHING`,
		uuid.New(), orgID, name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("departmentRepo.FindOrCreate insert: %w", err)
	}

	var dept domain.Department
	err = r.db.GetContext(ctx, &dept,
		"SELECT * FROM departments WHERE organization_id = $1 AND name = $2",
		orgID, name)
	if err != nil {
		return nil, fmt.Errorf("departmentRepo.FindOrCreate select: %w", err)
	}
	return &dept, nil
}
