package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"clearbooks/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed DigestSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.DigestSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendReviewDigest(ctx context.Context, toEmail, toName string, digest port.ReviewDigest) error {
	reviewURL := fmt.Sprintf("%s/reviews", s.frontendURL)

	subject := fmt.Sprintf("Reconciliation review: %d matches and %d discrepancies waiting", digest.PendingMatches, digest.OpenDiscrepancies)
	htmlBody := buildDigestHTML(toName, digest, reviewURL)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nReconciliation for %s over %s to %s finished with:\n- %d matches pending review\n- %d open discrepancies\n\nReview them at %s\n\nClearbooks",
		toName, digest.OrganizationName, digest.WindowStart, digest.WindowEnd,
		digest.PendingMatches, digest.OpenDiscrepancies, reviewURL)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildDigestHTML(toName string, digest port.ReviewDigest, reviewURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Reconciliation review waiting</h2>
  <p>Hi %s,</p>
  <p>Reconciliation for <strong>%s</strong> over %s &ndash; %s finished with:</p>
  <ul>
    <li><strong>%d</strong> matches pending review</li>
    <li><strong>%d</strong> open discrepancies</li>
  </ul>
  <p><a href="%s" style="background-color: #2563eb; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 4px;">Open review queue</a></p>
  <p style="color: #888; font-size: 12px;">Clearbooks</p>
</body>
</html>`,
		toName, digest.OrganizationName, digest.WindowStart, digest.WindowEnd,
		digest.PendingMatches, digest.OpenDiscrepancies, reviewURL)
}
