package models

import (
	"database/sql"
	"time"
)

// Driver is a fulfillment agent. Availability is derived from active orders,
// never stored: a driver is available iff it has zero orders outside the
// terminal statuses.
type Driver struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone,omitempty"`
	VehicleDetails   string         `json:"vehicle_details,omitempty"`
	UserID           sql.NullString `json:"user_id,omitempty"`
	PushSubscription []byte         `json:"-"` // raw JSON, nil when unsubscribed
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// DriverWithLoad is a roster entry annotated with the derived availability
// aggregate used by the dispatch-suggestion engine.
type DriverWithLoad struct {
	Driver
	ActiveOrders int  `json:"active_orders"`
	Available    bool `json:"available"`
}

// CreateDriverRequest is the body of a driver-creation call.
type CreateDriverRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,max=30"`
	VehicleDetails string `json:"vehicle_details,omitempty" validate:"omitempty,max=500"`
}

// PushSubscriptionKeys are the standard web-push encryption keys.
type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// PushSubscription is the browser-provided web-push subscription payload.
type PushSubscription struct {
	Endpoint string               `json:"endpoint" validate:"required,url"`
	Keys     PushSubscriptionKeys `json:"keys" validate:"required"`
}

// PushSubscriptionRequest stores or clears (null subscription) a driver's
// push subscription. DriverID is a free-form string for demo compatibility.
type PushSubscriptionRequest struct {
	DriverID     string            `json:"driverId" validate:"required"`
	Subscription *PushSubscription `json:"subscription" validate:"omitempty"`
}
