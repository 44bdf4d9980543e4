package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clearbooks/internal/domain"
)

// VendorResult is the normalized form of a raw vendor string.
type VendorResult struct {
	CleanName   string
	IsRecurring bool
}

// VendorNormalizer resolves a raw statement vendor string into a clean
// canonical name. Implementations fail with a provider error on timeout,
// rate limit, or malformed response; callers fall back deterministically.
type VendorNormalizer interface {
	NormalizeVendor(ctx context.Context, rawName string) (*VendorResult, error)
}

// CategoryClassifier resolves a spend category for a (vendor, description,
// amount) triple. Same failure contract as VendorNormalizer.
type CategoryClassifier interface {
	Classify(ctx context.Context, vendor, description string, amount decimal.Decimal) (string, error)
}

// InvoiceFeed pulls invoices from an external accounting system, normalized
// to the ExternalInvoice shape. Read-only.
type InvoiceFeed interface {
	ListInvoices(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.ExternalInvoice, error)
}
