package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrOrganizationInactive = errors.New("organization is inactive")
	ErrUserInactive         = errors.New("user is inactive")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrNoParsableRows       = errors.New("document contains no parsable rows")
	ErrMatchNotPending      = errors.New("match is not in pending state")
	ErrDiscrepancyNotOpen   = errors.New("discrepancy is not in open state")
	ErrMatchConflict        = errors.New("a confirmed match already claims this transaction or invoice")
	ErrStaleRecord          = errors.New("record was modified concurrently")
	ErrDuplicateEmail       = errors.New("email already exists for this organization")
	ErrDuplicateOrgSlug     = errors.New("organization slug already exists")
	ErrRunInProgress        = errors.New("a reconciliation run for this window is already in progress")
)
