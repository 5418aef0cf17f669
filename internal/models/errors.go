package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when an insert collides with an existing row,
	// e.g. a duplicate dispatch-event dedup id.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidState is returned when a lifecycle guard is violated, such as
	// assigning a driver to an order that is not ready for dispatch.
	ErrInvalidState = errors.New("order is not in a valid state for this operation")

	// ErrQuoteExpired is returned when checkout is attempted on a quote past
	// its expiration window.
	ErrQuoteExpired = errors.New("the quote has expired, please request a new one")

	// ErrInvalidPricing is returned when a quote's total is not positive.
	ErrInvalidPricing = errors.New("quote pricing total must be positive")

	// ErrUnauthorized is returned when no valid session is present.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden is returned when the caller's role does not permit the operation.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrUnconfigured is returned by integration adapters whose credentials
	// are absent. Callers degrade instead of crashing.
	ErrUnconfigured = errors.New("integration is not configured")
)

// ErrorResponse is the generic JSON error body returned to clients.
type ErrorResponse struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
