package orders

import (
	"context"
	"fmt"
	"log/slog"

	"courier-dispatch/internal/models"
	"courier-dispatch/internal/modules/events"
	"courier-dispatch/pkg/push"
)

// DriverLookup is the slice of the drivers repository the order service
// needs for assignment.
type DriverLookup interface {
	FindByID(ctx context.Context, driverID string) (*models.Driver, error)
}

// QuoteLookup resolves quotes for the payment-confirmation path.
type QuoteLookup interface {
	FindQuoteByID(ctx context.Context, quoteID string) (*models.Quote, error)
}

// ServiceInterface defines order lifecycle business logic.
type ServiceInterface interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error)
	AssignDriver(ctx context.Context, orderID, driverID, actor string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, req models.StatusUpdateRequest, actor string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, actor string) (*models.Order, error)
	ConfirmPayment(ctx context.Context, quoteID, sessionID, paymentIntentID string) (*models.Order, error)
}

// Service implements the order lifecycle. Audit events and push
// notifications are best-effort side effects: they are logged on failure
// and never fail the primary transition.
type Service struct {
	repo    RepositoryInterface
	drivers DriverLookup
	quotes  QuoteLookup
	events  events.ServiceInterface
	pusher  push.SenderInterface
	logger  *slog.Logger
}

// NewService creates a new order service.
func NewService(
	repo RepositoryInterface,
	drivers DriverLookup,
	quotes QuoteLookup,
	eventSvc events.ServiceInterface,
	pusher push.SenderInterface,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		drivers: drivers,
		quotes:  quotes,
		events:  eventSvc,
		pusher:  pusher,
		logger:  logger,
	}
}

// GetOrder retrieves a single order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// ListOrders lists orders newest first.
func (s *Service) ListOrders(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListAll(ctx, page, limit)
}

// AssignDriver assigns a driver to an order that is ReadyForDispatch. The
// transition is a single conditional write, so concurrent assignments for
// the same order cannot both succeed. Both assignment routes funnel here.
func (s *Service) AssignDriver(ctx context.Context, orderID, driverID, actor string) (*models.Order, error) {
	driver, err := s.drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("service.AssignDriver: driver: %w", err)
	}

	order, err := s.repo.AssignDriver(ctx, orderID, driver.ID)
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, events.Entry{
		OrderID:   order.ID,
		Actor:     actor,
		EventType: models.EventDriverAssigned,
		Source:    models.SourceAPI,
		Payload: map[string]any{
			"driver_id":   driver.ID,
			"driver_name": driver.Name,
		},
	})

	s.notifyDriver(driver, push.Notification{
		Title:   "New delivery assigned",
		Body:    fmt.Sprintf("Pickup at %s", order.PickupAddress),
		OrderID: order.ID,
	})

	return order, nil
}

// UpdateStatus applies a driver-reported lifecycle transition. The previous
// status is read first to validate the transition and to enrich the audit
// event, but the write itself is still conditional on that status.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req models.StatusUpdateRequest, actor string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		return nil, models.ErrInvalidState
	}

	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, models.ErrInvalidState
	}

	order, err := s.repo.UpdateStatus(ctx, orderID, current.Status, next)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"previous_status": current.Status.String(),
		"new_status":      next.String(),
	}
	if order.DriverID.Valid {
		payload["driver_id"] = order.DriverID.String
	}
	if req.Notes != "" {
		payload["notes"] = req.Notes
	}
	s.events.Record(ctx, events.Entry{
		OrderID:   order.ID,
		Actor:     actor,
		EventType: models.EventStatusUpdated,
		Source:    models.SourceAPI,
		Payload:   payload,
	})

	return order, nil
}

// CancelOrder moves a non-terminal order to Canceled. The assigned driver,
// if any, becomes available again automatically because availability is
// derived from active orders.
func (s *Service) CancelOrder(ctx context.Context, orderID, actor string) (*models.Order, error) {
	current, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.events.Record(ctx, events.Entry{
		OrderID:   order.ID,
		Actor:     actor,
		EventType: models.EventOrderCanceled,
		Source:    models.SourceAPI,
		Payload: map[string]any{
			"previous_status": current.Status.String(),
		},
	})

	return order, nil
}

// ConfirmPayment creates the operational order for a paid quote. Retried
// webhook deliveries return the already-created order.
func (s *Service) ConfirmPayment(ctx context.Context, quoteID, sessionID, paymentIntentID string) (*models.Order, error) {
	quote, err := s.quotes.FindQuoteByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("service.ConfirmPayment: quote: %w", err)
	}
	if quote.Pricing.Total <= 0 {
		return nil, models.ErrInvalidPricing
	}

	order, err := s.repo.CreateFromQuote(ctx, quote, sessionID, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("service.ConfirmPayment: %w", err)
	}

	s.events.Record(ctx, events.Entry{
		OrderID:   order.ID,
		Actor:     "payments",
		EventType: models.EventOrderCreated,
		Source:    models.SourceStripe,
		EventID:   "order_created:" + quote.ID,
		Payload: map[string]any{
			"quote_id":            quote.ID,
			"checkout_session_id": sessionID,
			"total":               quote.Pricing.Total,
		},
	})

	return order, nil
}

// notifyDriver sends a best-effort web-push notification.
func (s *Service) notifyDriver(driver *models.Driver, n push.Notification) {
	if s.pusher == nil || !s.pusher.Configured() || len(driver.PushSubscription) == 0 {
		return
	}
	if err := s.pusher.Send(driver.PushSubscription, n); err != nil {
		s.logger.Warn("driver push failed", "driver", driver.ID, "error", err)
	}
}
