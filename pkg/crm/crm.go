// Package crm syncs delivered orders to the hosted CRM as deals. The CRM
// exposes a token-authenticated JSON API; sync is best-effort and runs from
// the outbox worker, never inline with a request.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"courier-dispatch/internal/models"

	"golang.org/x/oauth2"
)

// Deal is the shape pushed to the CRM when an order is delivered.
type Deal struct {
	OrderID       string  `json:"order_id"`
	CustomerEmail string  `json:"customer_email"`
	CustomerName  string  `json:"customer_name"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
}

// ClientInterface is the contract consumed by the outbox worker.
type ClientInterface interface {
	Configured() bool
	UpsertDeal(ctx context.Context, deal Deal) (string, error)
}

// Client talks to the CRM over an oauth2 static-token HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a CRM client. Empty credentials yield an unconfigured
// client; every call then returns ErrUnconfigured.
func NewClient(baseURL, token string) *Client {
	c := &Client{baseURL: baseURL}
	if baseURL != "" && token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		c.http = oauth2.NewClient(context.Background(), src)
		c.http.Timeout = 10 * time.Second
	}
	return c
}

func (c *Client) Configured() bool { return c.http != nil }

// UpsertDeal creates or updates the deal keyed on the order id and returns
// the CRM-side deal id.
func (c *Client) UpsertDeal(ctx context.Context, deal Deal) (string, error) {
	if c.http == nil {
		return "", models.ErrUnconfigured
	}

	body, err := json.Marshal(deal)
	if err != nil {
		return "", fmt.Errorf("crm.UpsertDeal: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/deals", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("crm.UpsertDeal: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("crm.UpsertDeal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("crm.UpsertDeal: status %d: %s", resp.StatusCode, snippet)
	}

	var out struct {
		DealID string `json:"deal_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("crm.UpsertDeal: decode: %w", err)
	}
	return out.DealID, nil
}
