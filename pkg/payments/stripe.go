// Package payments wraps the Stripe hosted-checkout API. Only session
// creation, retrieval and webhook verification are exposed; payment capture
// itself happens on Stripe's side.
package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"courier-dispatch/internal/models"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// CheckoutSession is the subset of a hosted checkout session the rest of the
// application cares about.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// CheckoutParams describes the session to create for a quote.
type CheckoutParams struct {
	QuoteID     string
	Description string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// ClientInterface is the contract consumed by the quotes service.
type ClientInterface interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*stripe.Event, error)
}

// Client is the Stripe-backed implementation. A client built without a
// secret key reports unconfigured and fails every call with ErrUnconfigured.
type Client struct {
	api           *client.API
	webhookSecret string
}

// NewClient builds a Stripe client. An empty secretKey yields an
// unconfigured client rather than an error.
func NewClient(secretKey, webhookSecret string) *Client {
	c := &Client{webhookSecret: webhookSecret}
	if secretKey != "" {
		c.api = &client.API{}
		c.api.Init(secretKey, nil)
	}
	return c
}

func (c *Client) Configured() bool { return c.api != nil }

// CreateCheckoutSession creates a hosted checkout session for a quote. The
// quote id travels as the client reference so the payment webhook can map
// the completed session back to its quote.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if c.api == nil {
		return nil, models.ErrUnconfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(p.QuoteID),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Description),
					},
				},
			},
		},
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments.CreateCheckoutSession: %w", err)
	}
	return fromStripeSession(sess), nil
}

// GetCheckoutSession retrieves an existing session, used to honor the
// idempotency anchor stored on the quote.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if c.api == nil {
		return nil, models.ErrUnconfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("payments.GetCheckoutSession: %w", err)
	}
	return fromStripeSession(sess), nil
}

// VerifyWebhook checks the signature of an inbound payment webhook. When no
// signing secret is configured the payload is parsed without verification,
// which keeps local development working against the Stripe CLI.
func (c *Client) VerifyWebhook(payload []byte, signature string) (*stripe.Event, error) {
	if c.webhookSecret == "" {
		event := &stripe.Event{}
		if err := json.Unmarshal(payload, event); err != nil {
			return nil, fmt.Errorf("payments.VerifyWebhook: parse: %w", err)
		}
		return event, nil
	}

	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("payments.VerifyWebhook: %w", err)
	}
	return &event, nil
}

func fromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{ID: sess.ID, URL: sess.URL}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out
}
