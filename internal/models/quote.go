package models

import (
	"database/sql"
	"time"
)

// Customer is the identity of whoever requests a delivery. Customers are
// upserted keyed on their normalized (lowercased) email and never deleted.
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pricing is the computed price breakdown stored with a quote.
type Pricing struct {
	BaseFee     float64 `json:"baseFee"`
	PerMileRate float64 `json:"perMileRate"`
	FuelPct     float64 `json:"fuelPct"`
	DistanceMi  float64 `json:"distanceMi"`
	Subtotal    float64 `json:"subtotal"`
	Fuel        float64 `json:"fuel"`
	Total       float64 `json:"total"`
}

// Quote is a priced, time-limited delivery proposal prior to payment.
type Quote struct {
	ID                string         `json:"id"`
	CustomerID        string         `json:"customer_id"`
	PickupAddress     string         `json:"pickup_address"`
	DropoffAddress    string         `json:"dropoff_address"`
	DistanceMi        float64        `json:"distance_mi"`
	WeightLb          sql.NullFloat64 `json:"weight_lb,omitempty"`
	Pricing           Pricing        `json:"pricing"`
	Status            string         `json:"status"`
	ExpiresAt         time.Time      `json:"expires_at"`
	CheckoutSessionID sql.NullString `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Quote statuses. Once a checkout session exists the quote is awaiting
// payment; a paid quote becomes an order and is never updated again.
const (
	QuoteStatusDraft           = "Draft"
	QuoteStatusAwaitingPayment = "AwaitingPayment"
)

// Expired reports whether the quote is past its expiration timestamp.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// QuoteRequest is the body of a quote-creation call.
type QuoteRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=100"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone,omitempty" validate:"omitempty,max=30"`
	PickupAddress  string  `json:"pickupAddress" validate:"required,min=1,max=500"`
	DropoffAddress string  `json:"dropoffAddress" validate:"required,min=1,max=500"`
	DistanceMi     float64 `json:"distanceMi" validate:"required,gt=0"`
	WeightLb       float64 `json:"weightLb,omitempty" validate:"omitempty,gt=0"`
}

// CheckoutRequest is the body of a checkout-creation call.
type CheckoutRequest struct {
	QuoteID string `json:"quoteId" validate:"required,uuid4"`
}

// QuoteResponse is returned from quote creation.
type QuoteResponse struct {
	QuoteID string  `json:"quoteId"`
	Pricing Pricing `json:"pricing"`
}

// CheckoutResponse carries the hosted-checkout redirect URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}
