package models

import (
	"database/sql"
	"strings"
	"time"
)

// OrderStatus is an order lifecycle status as stored in the `orders` table.
type OrderStatus string

const (
	StatusDraft            OrderStatus = "Draft"
	StatusAwaitingPayment  OrderStatus = "AwaitingPayment"
	StatusReadyForDispatch OrderStatus = "ReadyForDispatch"
	StatusAssigned         OrderStatus = "Assigned"
	StatusAccepted         OrderStatus = "Accepted"
	StatusPickedUp         OrderStatus = "PickedUp"
	StatusInTransit        OrderStatus = "InTransit"
	StatusDelivered        OrderStatus = "Delivered"
	StatusCanceled         OrderStatus = "Canceled"
)

// ParseOrderStatus validates a status string supplied by a client.
func ParseOrderStatus(in string) (OrderStatus, bool) {
	s := OrderStatus(strings.TrimSpace(in))
	return s, s.Valid()
}

// Valid reports whether the status is one of the allowed constants.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusAwaitingPayment, StatusReadyForDispatch,
		StatusAssigned, StatusAccepted, StatusPickedUp,
		StatusInTransit, StatusDelivered, StatusCanceled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is absorbing. Terminal orders never
// count toward a driver's active load.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Canceled is reachable from every non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCanceled {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusAwaitingPayment
	case StatusAwaitingPayment:
		return next == StatusReadyForDispatch
	case StatusReadyForDispatch:
		return next == StatusAssigned
	case StatusAssigned:
		return next == StatusAccepted
	case StatusAccepted:
		return next == StatusPickedUp
	case StatusPickedUp:
		return next == StatusInTransit || next == StatusDelivered
	case StatusInTransit:
		return next == StatusDelivered
	default:
		return false
	}
}

func (s OrderStatus) String() string { return string(s) }

// Order is the operational unit tracked once a quote has been paid.
type Order struct {
	ID                string         `json:"id"`
	QuoteID           string         `json:"quote_id"`
	DriverID          sql.NullString `json:"driver_id,omitempty"`
	Status            OrderStatus    `json:"status"`
	Total             float64        `json:"total"`
	Currency          string         `json:"currency"`
	PaymentIntentID   sql.NullString `json:"payment_intent_id,omitempty"`
	CheckoutSessionID sql.NullString `json:"checkout_session_id,omitempty"`
	CRMDealID         sql.NullString `json:"crm_deal_id,omitempty"`
	PickupAddress     string         `json:"pickup_address"`
	DropoffAddress    string         `json:"dropoff_address"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// AssignDriverRequest is the flat-body form of the assignment operation.
type AssignDriverRequest struct {
	OrderID  string `json:"orderId" validate:"required,uuid4"`
	DriverID string `json:"driverId" validate:"required,uuid4"`
}

// AssignDriverByPathRequest is the route-keyed form; the order id comes from
// the URL so only the driver is in the body.
type AssignDriverByPathRequest struct {
	DriverID string `json:"driverId" validate:"required,uuid4"`
}

// StatusUpdateRequest is the body of a driver-reported status change.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=Accepted PickedUp InTransit Delivered Canceled"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
