package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clearbooks/internal/domain"
	"clearbooks/internal/port"
)

type organizationRepo struct {
	db *sqlx.DB
}

// NewOrganizationRepo creates a new PostgreSQL-backed OrganizationRepository.
func NewOrganizationRepo(db *sqlx.DB) port.OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) GetByID(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.GetContext(ctx, &org,
		"SELECT * FROM organizations WHERE id = $1", orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("organizationRepo.GetByID: %w", err)
	}
	return &org, nil
}

func (r *organizationRepo) ListActive(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	err := r.db.SelectContext(ctx, &orgs,
		"SELECT * FROM organizations WHERE is_active = true ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.ListActive: %w", err)
	}
	return orgs, nil
}
