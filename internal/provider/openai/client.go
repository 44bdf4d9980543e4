package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clearbooks/internal/config"
	"clearbooks/internal/port"
	"clearbooks/internal/provider"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

const normalizePrompt = `You clean up raw bank-statement vendor strings.
Given a raw vendor string, return JSON: {"clean_name": "...", "is_recurring": true|false}.
clean_name is the human-readable business name with transaction codes, store
numbers and city suffixes removed. is_recurring is true when the vendor is a
typical subscription or recurring biller.`

const classifyPrompt = `You categorize business spend.
Given a vendor, a transaction description and a signed amount (positive means
money in), return JSON: {"category": "..."} using a concise spend category such
as "Software & SaaS", "Travel", "Payroll", "Office Supplies", "Revenue" or
"Operations & Misc".`

// Client implements port.VendorNormalizer and port.CategoryClassifier using
// the OpenAI Chat Completions API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates an OpenAI-backed provider client.
func NewClient(cfg *config.AIConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// NormalizeVendor resolves a raw vendor string into a clean canonical name.
func (c *Client) NormalizeVendor(ctx context.Context, rawName string) (*port.VendorResult, error) {
	content, err := c.complete(ctx, "normalize_vendor", normalizePrompt, fmt.Sprintf("Raw vendor: %q", rawName))
	if err != nil {
		return nil, err
	}

	var out struct {
		CleanName   string `json:"clean_name"`
		IsRecurring bool   `json:"is_recurring"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, provider.NewError("openai", "normalize_vendor", fmt.Errorf("malformed response: %w", err))
	}
	if strings.TrimSpace(out.CleanName) == "" {
		return nil, provider.NewError("openai", "normalize_vendor", fmt.Errorf("empty clean_name in response"))
	}
	return &port.VendorResult{
		CleanName:   strings.TrimSpace(out.CleanName),
		IsRecurring: out.IsRecurring,
	}, nil
}

// Classify resolves a spend category for a (vendor, description, amount) triple.
func (c *Client) Classify(ctx context.Context, vendor, description string, amount decimal.Decimal) (string, error) {
	user := fmt.Sprintf("Vendor: %q\nDescription: %q\nAmount: %s", vendor, description, amount.StringFixed(2))
	content, err := c.complete(ctx, "classify", classifyPrompt, user)
	if err != nil {
		return "", err
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", provider.NewError("openai", "classify", fmt.Errorf("malformed response: %w", err))
	}
	if strings.TrimSpace(out.Category) == "" {
		return "", provider.NewError("openai", "classify", fmt.Errorf("empty category in response"))
	}
	return strings.TrimSpace(out.Category), nil
}

func (c *Client) complete(ctx context.Context, op, system, user string) (string, error) {
	reqBody := map[string]interface{}{
		"model":                 c.model,
		"max_completion_tokens": 256,
		"messages": []map[string]interface{}{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", provider.NewError("openai", op, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", provider.NewError("openai", op, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", provider.NewError("openai", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.NewError("openai", op, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", provider.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return "", provider.NewError("openai", op, baseErr)
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", provider.NewError("openai", op, fmt.Errorf("decoding response: %w", err))
	}
	if len(apiResp.Choices) == 0 {
		return "", provider.NewError("openai", op, fmt.Errorf("response contains no choices"))
	}
	return apiResp.Choices[0].Message.Content, nil
}
