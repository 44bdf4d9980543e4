package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clearbooks/internal/domain"
)

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, orgID, docID uuid.UUID) (*domain.Document, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Document, int, error)
	UpdateStatus(ctx context.Context, doc *domain.Document) error
	// ClaimQueued atomically moves up to limit queued documents to processing
	// and returns them. Safe to call from concurrent workers.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Document, error)
}

// VendorRepository defines the contract for canonical vendor persistence.
// FindOrCreate must be race-tolerant: a concurrent creator resolves to the
// first-created row instead of erroring.
type VendorRepository interface {
	FindOrCreate(ctx context.Context, orgID uuid.UUID, cleanName string, isRecurring bool) (*domain.Vendor, error)
	GetByID(ctx context.Context, orgID, vendorID uuid.UUID) (*domain.Vendor, error)
}

// CategoryRepository defines the contract for canonical category persistence.
type CategoryRepository interface {
	FindOrCreate(ctx context.Context, orgID uuid.UUID, name string) (*domain.Category, error)
	GetByID(ctx context.Context, orgID, categoryID uuid.UUID) (*domain.Category, error)
}

// TransactionRepository defines the contract for ledger transaction persistence.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	ListByWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.Transaction, error)
	ListByDocument(ctx context.Context, orgID, docID uuid.UUID) ([]domain.Transaction, error)
}

// DepartmentRepository is the find-or-create dimension for summary rows.
type DepartmentRepository interface {
	FindOrCreate(ctx context.Context, orgID uuid.UUID, name string) (*domain.Department, error)
}

// MonthlyMetricRepository defines the contract for summary-level metrics.
type MonthlyMetricRepository interface {
	Upsert(ctx context.Context, metric *domain.MonthlyMetric) error
}
