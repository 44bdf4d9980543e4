package noop

import (
	"context"
	"log"

	"clearbooks/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op DigestSender that logs digests to stdout.
func NewNoopSender() port.DigestSender {
	return &noopSender{}
}

func (s *noopSender) SendReviewDigest(_ context.Context, toEmail, toName string, digest port.ReviewDigest) error {
	log.Printf("[NOOP EMAIL] Review digest for %s (%s): %d pending matches, %d open discrepancies over %s - %s",
		toName, toEmail, digest.PendingMatches, digest.OpenDiscrepancies, digest.WindowStart, digest.WindowEnd)
	return nil
}
