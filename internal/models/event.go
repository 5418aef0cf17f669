package models

import (
	"database/sql"
	"time"
)

// Dispatch event types written by the lifecycle operations. EventType is a
// free-form string in the store; these are the values this codebase emits.
const (
	EventDriverAssigned = "driver_assigned"
	EventStatusUpdated  = "status_updated"
	EventOrderCanceled  = "order_canceled"
	EventOrderCreated   = "order_created"
	EventWebhookInbound = "webhook_inbound"
)

// Event sources.
const (
	SourceAPI        = "api"
	SourceStripe     = "stripe"
	SourceAutomation = "automation"
)

// DispatchEvent is an immutable audit record of a lifecycle transition or an
// inbound external notification. Rows are append-only; the notified columns
// are the outbox state consumed by the notifier worker, not a mutation of
// the audit payload.
type DispatchEvent struct {
	ID             string         `json:"id"`
	OrderID        sql.NullString `json:"order_id,omitempty"`
	Actor          string         `json:"actor"`
	EventType      string         `json:"event_type"`
	Source         string         `json:"source"`
	EventID        sql.NullString `json:"event_id,omitempty"` // dedup key, unique when set
	Payload        []byte         `json:"payload"`            // raw JSON
	NotifiedAt     sql.NullTime   `json:"notified_at,omitempty"`
	NotifyAttempts int            `json:"notify_attempts"`
	CreatedAt      time.Time      `json:"created_at"`
}

// InboundWebhookRequest is the body accepted from the external automation
// system. EventID is caller-supplied and enforced unique for idempotent
// ingestion of retried deliveries.
type InboundWebhookRequest struct {
	EventID   string         `json:"eventId" validate:"required,min=1,max=200"`
	EventType string         `json:"eventType" validate:"required,min=1,max=100"`
	OrderID   string         `json:"orderId,omitempty" validate:"omitempty,uuid4"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// LogQuery are the admin audit-log filters. All fields are optional.
type LogQuery struct {
	EventType string
	OrderID   string
	DateFrom  time.Time
	DateTo    time.Time
	Limit     int
}
