package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courier-dispatch/internal/models"
)

// ServiceInterface defines event-log business logic. Record is best-effort
// by contract: it never returns an error, because audit logging must not
// fail the lifecycle transition that triggered it.
type ServiceInterface interface {
	Record(ctx context.Context, e Entry)
	RecordInbound(ctx context.Context, req models.InboundWebhookRequest, source string) error
	ListLogs(ctx context.Context, q models.LogQuery) ([]*models.DispatchEvent, error)
}

// Entry describes one lifecycle event to append.
type Entry struct {
	OrderID   string // optional
	Actor     string
	EventType string
	Source    string
	EventID   string // optional dedup key; constructed when empty and OrderID is set
	Payload   map[string]any
}

// Service implements ServiceInterface.
type Service struct {
	repo   RepositoryInterface
	logger *slog.Logger
}

// NewService creates a new event service.
func NewService(repo RepositoryInterface, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an audit event. Insert failures are logged and swallowed;
// duplicate dedup ids from retried deliveries are silently ignored.
func (s *Service) Record(ctx context.Context, e Entry) {
	ev, err := s.buildEvent(e)
	if err != nil {
		s.logger.Error("event payload marshal failed", "event_type", e.EventType, "error", err)
		return
	}

	if err := s.repo.Insert(ctx, ev); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return // retried delivery of the same logical event
		}
		s.logger.Error("event insert failed", "event_type", e.EventType, "order_id", e.OrderID, "error", err)
	}
}

// RecordInbound persists an inbound third-party webhook call. Unlike Record
// it surfaces errors: the webhook response must tell the caller whether the
// delivery was accepted. A duplicate event id maps to ErrConflict.
func (s *Service) RecordInbound(ctx context.Context, req models.InboundWebhookRequest, source string) error {
	ev, err := s.buildEvent(Entry{
		OrderID:   req.OrderID,
		Actor:     source,
		EventType: req.EventType,
		Source:    source,
		EventID:   req.EventID,
		Payload:   req.Payload,
	})
	if err != nil {
		return fmt.Errorf("service.RecordInbound: %w", err)
	}
	return s.repo.Insert(ctx, ev)
}

// ListLogs returns audit events for the admin log view.
func (s *Service) ListLogs(ctx context.Context, q models.LogQuery) ([]*models.DispatchEvent, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) buildEvent(e Entry) (*models.DispatchEvent, error) {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ev := &models.DispatchEvent{
		Actor:     e.Actor,
		EventType: e.EventType,
		Source:    e.Source,
		Payload:   raw,
	}
	if e.OrderID != "" {
		ev.OrderID = sql.NullString{String: e.OrderID, Valid: true}
	}

	eventID := e.EventID
	if eventID == "" && e.OrderID != "" {
		// Composed dedup key: order + actor + nanos keeps retried writes of
		// the same logical event from double-logging.
		eventID = fmt.Sprintf("%s:%s:%d", e.OrderID, e.Actor, time.Now().UnixNano())
	}
	if eventID != "" {
		ev.EventID = sql.NullString{String: eventID, Valid: true}
	}
	return ev, nil
}
