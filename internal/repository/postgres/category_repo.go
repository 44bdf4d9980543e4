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

type categoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo creates a new PostgreSQL-backed CategoryRepository.
func NewCategoryRepo(db *sqlx.DB) port.CategoryRepository {
	return &categoryRepo{db: db}
}

// FindOrCreate uses the same try-insert-then-read discipline as vendors.
func (r *categoryRepo) FindOrCreate(ctx context.Context, orgID uuid.UUID, name string) (*domain.Category, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, organization_id, name, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (organization_id, name) DO NOTHING`,
		uuid.New(), orgID, name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.FindOrCreate insert: %w", err)
	}

	var category domain.Category
	err = r.db.GetContext(ctx, &category,
		"SELECT * FROM categories WHERE organization_id = $1 AND name = $2",
		orgID, name)
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.FindOrCreate select: %w", err)
	}
	return &category, nil
}

func (r *categoryRepo) GetByID(ctx context.Context, orgID, categoryID uuid.UUID) (*domain.Category, error) {
	var category domain.Category
	err := r.db.GetContext(ctx, &category,
		"SELECT * FROM categories WHERE id = $1 AND organization_id = $2", categoryID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("categoryRepo.GetByID: %w", err)
	}
	return &category, nil
}
