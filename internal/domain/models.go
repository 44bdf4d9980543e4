package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization represents an isolated tenant organization.
type Organization struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User represents an authenticated user belonging to an organization.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           UserRole  `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Document represents one uploaded raw document and its ingestion lifecycle.
type Document struct {
	ID                   uuid.UUID      `db:"id" json:"id"`
	OrganizationID       uuid.UUID      `db:"organization_id" json:"organization_id"`
	FileName             string         `db:"file_name" json:"file_name"`
	ContentType          string         `db:"content_type" json:"content_type"`
	DeclaredType         DocumentType   `db:"declared_type" json:"declared_type"`
	S3Bucket             string         `db:"s3_bucket" json:"s3_bucket"`
	S3Key                string         `db:"s3_key" json:"s3_key"`
	Status               DocumentStatus `db:"status" json:"status"`
	ProcessingError      string         `db:"processing_error" json:"processing_error"`
	ExtractionConfidence float64        `db:"extraction_confidence" json:"extraction_confidence"`
	Summary              string         `db:"summary" json:"summary"`
	RowCount             int            `db:"row_count" json:"row_count"`
	SkipCount            int            `db:"skip_count" json:"skip_count"`
	ProcessAttempts      int            `db:"process_attempts" json:"process_attempts"`
	UploadedBy           uuid.UUID      `db:"uploaded_by" json:"uploaded_by"`
	ProcessedAt          *time.Time     `db:"processed_at" json:"processed_at"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// Vendor is the canonical, organization-scoped representation of a payee.
// At most one row exists per (organization_id, clean_name).
type Vendor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	CleanName      string    `db:"clean_name" json:"clean_name"`
	IsRecurring    bool      `db:"is_recurring" json:"is_recurring"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Category is the canonical, organization-scoped spend category.
type Category struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Transaction is one ledger entry materialized from a parsed document row.
/// Amounts are signed: positive is an inflow, negative an outflow.
type Transaction struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	DocumentID     uuid.UUID       `db:"document_id" json:"document_id"`
	Date           time.Time       `db:"txn_date" json:"date"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	VendorID       uuid.UUID       `db:"vendor_id" json:"vendor_id"`
	CategoryID     uuid.UUID       `db:"category_id" json:"category_id"`
	Description    string          `db:"description" json:"description"`
	IsRecurring    bool            `db:"is_recurring" json:"is_recurring"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// ExternalInvoice is an invoice pulled from the external accounting system.
// Read-only from the pipeline's perspective; the feed remains authoritative.
type ExternalInvoice struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	ExternalID     string          `db:"external_id" json:"external_id"`
	VendorName     string          `db:"vendor_name" json:"vendor_name"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	IssuedOn       time.Time       `db:"issued_on" json:"issued_on"`
	Status         string          `db:"status" json:"status"`
	Source         string          `db:"source" json:"source"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Match pairs a ledger transaction with an external invoice at a confidence
// in [0,1]. At most one confirmed match may exist per transaction or invoice.
type Match struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	TransactionID  uuid.UUID  `db:"transaction_id" json:"transaction_id"`
	InvoiceID      uuid.UUID  `db:"invoice_id" json:"invoice_id"`
	Confidence     float64    `db:"confidence" json:"confidence"`
	State          MatchState `db:"state" json:"state"`
	Version        int        `db:"version" json:"version"`
	DecidedBy      *uuid.UUID `db:"decided_by" json:"decided_by"`
	DecidedAt      *time.Time `db:"decided_at" json:"decided_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Discrepancy is a detected ledger/feed inconsistency awaiting human resolution.
type Discrepancy struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	OrganizationID uuid.UUID           `db:"organization_id" json:"organization_id"`
	Kind           DiscrepancyKind     `db:"kind" json:"kind"`
	TransactionID  *uuid.UUID          `db:"transaction_id" json:"transaction_id"`
	InvoiceID      *uuid.UUID          `db:"invoice_id" json:"invoice_id"`
	AmountDelta    decimal.NullDecimal `db:"amount_delta" json:"amount_delta"`
	Detail         string              `db:"detail" json:"detail"`
	State          DiscrepancyState    `db:"state" json:"state"`
	Version        int                 `db:"version" json:"version"`
	ResolvedBy     *uuid.UUID          `db:"resolved_by" json:"resolved_by"`
	ResolvedAt     *time.Time          `db:"resolved_at" json:"resolved_at"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// Department is the find-or-create dimension for summary-level documents.
type Department struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MonthlyMetric stores one summary-level row (month x department totals).
type MonthlyMetric struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	DocumentID     uuid.UUID       `db:"document_id" json:"document_id"`
	Month          time.Time       `db:"month" json:"month"`
	DepartmentID   uuid.UUID       `db:"department_id" json:"department_id"`
	Expenses       decimal.Decimal `db:"expenses" json:"expenses"`
	Revenue        decimal.Decimal `db:"revenue" json:"revenue"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// ReconRun tracks one reconciliation run over a date window.
type ReconRun struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	OrganizationID   uuid.UUID      `db:"organization_id" json:"organization_id"`
	WindowStart      time.Time      `db:"window_start" json:"window_start"`
	WindowEnd        time.Time      `db:"window_end" json:"window_end"`
	Status           ReconRunStatus `db:"status" json:"status"`
	IdempotencyKey   string         `db:"idempotency_key" json:"idempotency_key"`
	ConfirmedCount   int            `db:"confirmed_count" json:"confirmed_count"`
	PendingCount     int            `db:"pending_count" json:"pending_count"`
	DiscrepancyCount int            `db:"discrepancy_count" json:"discrepancy_count"`
	Error            string         `db:"error" json:"error"`
	StartedAt        *time.Time     `db:"started_at" json:"started_at"`
	FinishedAt       *time.Time     `db:"finished_at" json:"finished_at"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}
