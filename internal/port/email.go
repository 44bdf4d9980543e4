package port

import "context"

// ReviewDigest summarizes the human-review backlog after a reconciliation run.
type ReviewDigest struct {
	OrganizationName string
	PendingMatches   int
	OpenDiscrepancies int
	WindowStart      string
	WindowEnd        string
}

// DigestSender delivers review digests to an organization's reviewers.
type DigestSender interface {
	SendReviewDigest(ctx context.Context, toEmail, toName string, digest ReviewDigest) error
}
