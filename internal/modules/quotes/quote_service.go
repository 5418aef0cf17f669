package quotes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/payments"

	"github.com/google/uuid"
)

// QuoteTTL is how long a quote remains redeemable for checkout.
const QuoteTTL = 24 * time.Hour

// ServiceInterface defines the quote business logic.
type ServiceInterface interface {
	CreateQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResponse, error)
	CreateCheckout(ctx context.Context, quoteID string, demoMode bool) (*models.CheckoutResponse, error)
	GetQuote(ctx context.Context, quoteID string) (*models.Quote, error)
}

// Service implements the quote business logic.
type Service struct {
	repo         RepositoryInterface
	payments     payments.ClientInterface
	clientOrigin string
}

// NewService creates a new quote service.
func NewService(repo RepositoryInterface, paymentsClient payments.ClientInterface, clientOrigin string) *Service {
	return &Service{repo: repo, payments: paymentsClient, clientOrigin: clientOrigin}
}

// CreateQuote prices the request, upserts the customer on their normalized
// email and persists the quote as a 24-hour Draft.
func (s *Service) CreateQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResponse, error) {
	pricing := CalculatePrice(DefaultBaseFee, DefaultPerMileRate, DefaultFuelPct, req.DistanceMi)
	if pricing.Total <= 0 {
		return nil, models.ErrInvalidPricing
	}

	// The customer upsert keys on the normalized email.
	email := strings.ToLower(strings.TrimSpace(req.Email))
	customer, err := s.repo.UpsertCustomer(ctx, email, req.Name, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("service.CreateQuote: %w", err)
	}

	quote := &models.Quote{
		CustomerID:     customer.ID,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		DistanceMi:     req.DistanceMi,
		Pricing:        pricing,
		Status:         models.QuoteStatusDraft,
		ExpiresAt:      time.Now().Add(QuoteTTL),
	}
	if req.WeightLb > 0 {
		quote.WeightLb = sql.NullFloat64{Float64: req.WeightLb, Valid: true}
	}

	quote, err = s.repo.CreateQuote(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("service.CreateQuote: %w", err)
	}

	return &models.QuoteResponse{QuoteID: quote.ID, Pricing: pricing}, nil
}

// GetQuote retrieves a quote by id.
func (s *Service) GetQuote(ctx context.Context, quoteID string) (*models.Quote, error) {
	return s.repo.FindQuoteByID(ctx, quoteID)
}

// CreateCheckout creates a hosted checkout session for the quote. Calling it
// twice for the same quote returns the original session: the session id
// stored on the quote is the idempotency anchor.
func (s *Service) CreateCheckout(ctx context.Context, quoteID string, demoMode bool) (*models.CheckoutResponse, error) {
	quote, err := s.repo.FindQuoteByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.Expired(time.Now()) {
		return nil, models.ErrQuoteExpired
	}
	if quote.Pricing.Total <= 0 {
		return nil, models.ErrInvalidPricing
	}

	if demoMode {
		// Synthetic session so idempotency behaves the same as the real flow.
		if !quote.CheckoutSessionID.Valid {
			sessionID := "demo_" + uuid.NewString()
			if err := s.repo.SetCheckoutSession(ctx, quote.ID, sessionID); err != nil && !errors.Is(err, models.ErrConflict) {
				return nil, fmt.Errorf("service.CreateCheckout: persist demo session: %w", err)
			}
		}
		return &models.CheckoutResponse{
			URL: fmt.Sprintf("%s/demo/checkout?quote=%s", s.clientOrigin, quote.ID),
		}, nil
	}

	if quote.CheckoutSessionID.Valid {
		sess, err := s.payments.GetCheckoutSession(ctx, quote.CheckoutSessionID.String)
		if err != nil {
			return nil, fmt.Errorf("service.CreateCheckout: reuse session: %w", err)
		}
		return &models.CheckoutResponse{URL: sess.URL}, nil
	}

	sess, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutParams{
		QuoteID:     quote.ID,
		Description: fmt.Sprintf("Delivery %s -> %s", quote.PickupAddress, quote.DropoffAddress),
		AmountCents: toCents(quote.Pricing.Total),
		Currency:    "usd",
		SuccessURL:  s.clientOrigin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.clientOrigin + "/checkout/cancel",
	})
	if err != nil {
		// Checkout creation is the whole point of this operation, so the
		// external failure surfaces to the caller.
		return nil, fmt.Errorf("service.CreateCheckout: %w", err)
	}

	if err := s.repo.SetCheckoutSession(ctx, quote.ID, sess.ID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// A concurrent checkout won the race; honor its session.
			fresh, ferr := s.repo.FindQuoteByID(ctx, quote.ID)
			if ferr == nil && fresh.CheckoutSessionID.Valid {
				existing, gerr := s.payments.GetCheckoutSession(ctx, fresh.CheckoutSessionID.String)
				if gerr == nil {
					return &models.CheckoutResponse{URL: existing.URL}, nil
				}
			}
		}
		return nil, fmt.Errorf("service.CreateCheckout: persist session: %w", err)
	}

	return &models.CheckoutResponse{URL: sess.URL}, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
