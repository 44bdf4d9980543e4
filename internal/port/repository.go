package port

import (
	"context"

	"github.com/google/uuid"

	"clearbooks/internal/domain"
)

// OrganizationRepository defines the contract for organization persistence.
type OrganizationRepository interface {
	GetByID(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error)
	ListActive(ctx context.Context) ([]domain.Organization, error)
}

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, orgID, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListReviewers(ctx context.Context, orgID uuid.UUID) ([]domain.User, error)
}
