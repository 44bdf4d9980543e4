package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
	"clearbooks/internal/provider"
)

// Client pulls invoices from an external accounting system over its REST API
// and normalizes them to the ExternalInvoice shape. Implements port.InvoiceFeed.
type Client struct {
	baseURL string
	apiKey  string
	source  string
	client  *http.Client
}

// NewClient creates an invoice feed client for one accounting-system endpoint.
func NewClient(cfg *config.FeedConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		source:  "accounting_api",
		client:  &http.Client{Timeout: timeout},
	}
}

// wireInvoice is the feed's own invoice representation.
type wireInvoice struct {
	ID         string `json:"id"`
	VendorName string `json:"vendor_name"`
	Amount     string `json:"amount"`
	IssuedOn   string `json:"issued_on"`
	Status     string `json:"status"`
}

// ListInvoices fetches all invoices issued inside [from, to] for an organization.
func (c *Client) ListInvoices(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.ExternalInvoice, error) {
	q := url.Values{}
	q.Set("organization_id", orgID.String())
	q.Set("issued_from", from.Format("2006-01-02"))
	q.Set("issued_to", to.Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s/v1/invoices?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, provider.NewError(c.source, "list_invoices", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, provider.NewError(c.source, "list_invoices", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(c.source, "list_invoices", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("feed API error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError(c.source, baseErr, retryAfter)
		}
		return nil, provider.NewError(c.source, "list_invoices", baseErr)
	}

	var payload struct {
		Invoices []wireInvoice `json:"invoices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, provider.NewError(c.source, "list_invoices", fmt.Errorf("malformed response: %w", err))
	}

	invoices := make([]domain.ExternalInvoice, 0, len(payload.Invoices))
	for _, w := range payload.Invoices {
		amount, err := decimal.NewFromString(w.Amount)
		if err != nil {
			return nil, provider.NewError(c.source, "list_invoices", fmt.Errorf("invoice %s has bad amount %q: %w", w.ID, w.Amount, err))
		}
		issuedOn, err := time.Parse("2006-01-02", w.IssuedOn)
		if err != nil {
			return nil, provider.NewError(c.source, "list_invoices", fmt.Errorf("invoice %s has bad issued_on %q: %w", w.ID, w.IssuedOn, err))
		}
		invoices = append(invoices, domain.ExternalInvoice{
			OrganizationID: orgID,
			ExternalID:     w.ID,
			VendorName:     w.VendorName,
			Amount:         amount,
			IssuedOn:       issuedOn,
			Status:         w.Status,
			Source:         c.source,
		})
	}
	return invoices, nil
}
