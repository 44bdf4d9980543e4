package domain

// UserRole defines the role hierarchy within an organization.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleReviewer UserRole = "reviewer"
	RoleMember   UserRole = "member"
)

// DocumentType is the caller-declared type of an uploaded document.
type DocumentType string

const (
	DocTypeBankStatement DocumentType = "bank_statement"
	DocTypeInvoice       DocumentType = "invoice"
	DocTypeReceipt       DocumentType = "receipt"
	DocTypeCSV           DocumentType = "csv"
)

// AllowedDocumentTypes lists the accepted declared types.
var AllowedDocumentTypes = map[DocumentType]bool{
	DocTypeBankStatement: true,
	DocTypeInvoice:       true,
	DocTypeReceipt:       true,
	DocTypeCSV:           true,
}

// AllowedContentTypes maps accepted upload MIME types to a short label.
var AllowedContentTypes = map[string]string{
	"text/csv":                 "csv",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"text/plain":      "text",
	"application/pdf": "pdf",
}

// DocumentStatus represents the ingestion lifecycle of an uploaded document.
type DocumentStatus string

const (
	DocStatusUploaded   DocumentStatus = "uploaded"
	DocStatusQueued     DocumentStatus = "queued"
	DocStatusProcessing DocumentStatus = "processing"
	DocStatusProcessed  DocumentStatus = "processed"
	DocStatusError      DocumentStatus = "error"
)

// MatchState is the review lifecycle of a transaction/invoice match.
type MatchState string

const (
	MatchPending   MatchState = "pending"
	MatchConfirmed MatchState = "confirmed"
	MatchRejected  MatchState = "rejected"
)

// DiscrepancyKind classifies a detected ledger/feed inconsistency.
type DiscrepancyKind string

const (
	DiscrepancyInvoiceWithoutTransaction DiscrepancyKind = "invoice_without_transaction"
	DiscrepancyTransactionWithoutInvoice DiscrepancyKind = "transaction_without_invoice"
	DiscrepancyAmountMismatch            DiscrepancyKind = "amount_mismatch"
	DiscrepancyMatchingAmbiguity         DiscrepancyKind = "matching_ambiguity"
)

// DiscrepancyState is the resolution lifecycle of a discrepancy.
type DiscrepancyState string

const (
	DiscrepancyOpen     DiscrepancyState = "open"
	DiscrepancyResolved DiscrepancyState = "resolved"
	DiscrepancyIgnored  DiscrepancyState = "ignored"
)

// SkipReason explains why the ledger writer skipped a parsed row.
type SkipReason string

const (
	SkipNoVendorCache SkipReason = "no_vendor_cache"
	SkipNoDBRecord    SkipReason = "no_db_record"
)

// ReconRunStatus tracks a reconciliation run job.
type ReconRunStatus string

const (
	ReconRunQueued    ReconRunStatus = "queued"
	ReconRunRunning   ReconRunStatus = "running"
	ReconRunSucceeded ReconRunStatus = "succeeded"
	ReconRunFailed    ReconRunStatus = "failed"
)
