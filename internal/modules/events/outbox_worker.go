package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/crm"
	"courier-dispatch/pkg/email"
)

// OrderLookup is the slice of the orders repository the worker needs to
// enrich delivered-order events.
type OrderLookup interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	UpdateCRMDealID(ctx context.Context, orderID, dealID string) error
}

// CustomerLookup resolves the customer behind an order's quote.
type CustomerLookup interface {
	FindQuoteByID(ctx context.Context, quoteID string) (*models.Quote, error)
	FindCustomerByID(ctx context.Context, customerID string) (*models.Customer, error)
}

// Worker drains the dispatch-event outbox: each pending row is POSTed to the
// external automation webhook, and delivered-order events additionally fan
// out to the CRM and the confirmation email. All of it is best-effort with
// bounded retries; the primary lifecycle transitions never wait on it.
type Worker struct {
	repo        RepositoryInterface
	orders      OrderLookup
	customers   CustomerLookup
	crmClient   crm.ClientInterface
	emailer     email.ServiceInterface
	templates   *email.TemplateManager
	webhookURL  string
	client      *http.Client
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

// NewWorker creates an outbox worker. An empty webhookURL disables external
// notification; rows are then stamped notified as soon as local fan-out ran.
func NewWorker(
	repo RepositoryInterface,
	orders OrderLookup,
	customers CustomerLookup,
	crmClient crm.ClientInterface,
	emailer email.ServiceInterface,
	templates *email.TemplateManager,
	webhookURL string,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		repo:        repo,
		orders:      orders,
		customers:   customers,
		crmClient:   crmClient,
		emailer:     emailer,
		templates:   templates,
		webhookURL:  webhookURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
		interval:    5 * time.Second,
		batchSize:   25,
		maxAttempts: 8,
	}
}

// Run polls the outbox until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch handles one poll cycle and reports how many rows were
// delivered. Exported so tests can drive the worker without the ticker.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	pending, err := w.repo.FetchUnnotified(ctx, w.batchSize, w.maxAttempts)
	if err != nil {
		w.logger.Error("outbox fetch failed", "error", err)
		return 0
	}

	delivered := 0
	for _, ev := range pending {
		if err := w.deliver(ctx, ev); err != nil {
			w.logger.Warn("outbox delivery failed",
				"event", ev.ID, "event_type", ev.EventType, "attempts", ev.NotifyAttempts+1, "error", err)
			if err := w.repo.IncrementAttempts(ctx, ev.ID); err != nil {
				w.logger.Error("outbox attempt bump failed", "event", ev.ID, "error", err)
			}
			continue
		}

		w.fanOutDelivered(ctx, ev)

		if err := w.repo.MarkNotified(ctx, ev.ID); err != nil {
			w.logger.Error("outbox mark failed", "event", ev.ID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// deliver POSTs the event to the automation webhook.
func (w *Worker) deliver(ctx context.Context, ev *models.DispatchEvent) error {
	if w.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"eventId":   ev.EventID.String,
		"eventType": ev.EventType,
		"orderId":   ev.OrderID.String,
		"actor":     ev.Actor,
		"source":    ev.Source,
		"payload":   json.RawMessage(ev.Payload),
		"createdAt": ev.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// fanOutDelivered runs the CRM deal sync and the confirmation email for
// delivered orders. Failures are logged only; the outbox row still counts
// as notified because the webhook leg succeeded.
func (w *Worker) fanOutDelivered(ctx context.Context, ev *models.DispatchEvent) {
	if ev.EventType != models.EventStatusUpdated || !ev.OrderID.Valid {
		return
	}

	var payload struct {
		NewStatus string `json:"new_status"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.NewStatus != string(models.StatusDelivered) {
		return
	}

	order, err := w.orders.FindByID(ctx, ev.OrderID.String)
	if err != nil {
		w.logger.Warn("delivered fan-out: order lookup failed", "order", ev.OrderID.String, "error", err)
		return
	}
	quote, err := w.customers.FindQuoteByID(ctx, order.QuoteID)
	if err != nil {
		w.logger.Warn("delivered fan-out: quote lookup failed", "order", order.ID, "error", err)
		return
	}
	customer, err := w.customers.FindCustomerByID(ctx, quote.CustomerID)
	if err != nil {
		w.logger.Warn("delivered fan-out: customer lookup failed", "order", order.ID, "error", err)
		return
	}

	if w.crmClient != nil && w.crmClient.Configured() && !order.CRMDealID.Valid {
		dealID, err := w.crmClient.UpsertDeal(ctx, crm.Deal{
			OrderID:       order.ID,
			CustomerEmail: customer.Email,
			CustomerName:  customer.Name,
			Amount:        order.Total,
			Currency:      order.Currency,
			Description:   fmt.Sprintf("Delivery %s -> %s", order.PickupAddress, order.DropoffAddress),
		})
		if err != nil {
			w.logger.Warn("crm deal sync failed", "order", order.ID, "error", err)
		} else if err := w.orders.UpdateCRMDealID(ctx, order.ID, dealID); err != nil {
			w.logger.Warn("crm deal id persist failed", "order", order.ID, "error", err)
		}
	}

	if w.emailer != nil && w.emailer.Configured() && w.templates != nil {
		html, err := w.templates.GenerateDeliveryConfirmationHTML(email.DeliveryConfirmationData{
			Name:    customer.Name,
			OrderID: order.ID,
			Total:   fmt.Sprintf("%.2f %s", order.Total, order.Currency),
		})
		if err != nil {
			w.logger.Warn("delivery email template failed", "order", order.ID, "error", err)
			return
		}
		plain := fmt.Sprintf("Hi %s, your order %s has been delivered.", customer.Name, order.ID)
		if err := w.emailer.SendEmail(ctx, customer.Email, "Your delivery is complete", plain, html); err != nil {
			w.logger.Warn("delivery email send failed", "order", order.ID, "error", err)
		}
	}
}
