package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/crm"
)

type outboxRepo struct {
	mu       sync.Mutex
	pending  []*models.DispatchEvent
	notified map[string]bool
	attempts map[string]int
}

func newOutboxRepo(pending ...*models.DispatchEvent) *outboxRepo {
	return &outboxRepo{
		pending:  pending,
		notified: make(map[string]bool),
		attempts: make(map[string]int),
	}
}

func (r *outboxRepo) Insert(context.Context, *models.DispatchEvent) error { return nil }

func (r *outboxRepo) List(context.Context, models.LogQuery) ([]*models.DispatchEvent, error) {
	return nil, nil
}

func (r *outboxRepo) FetchUnnotified(_ context.Context, limit, maxAttempts int) ([]*models.DispatchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DispatchEvent
	for _, ev := range r.pending {
		if r.notified[ev.ID] || r.attempts[ev.ID] >= maxAttempts {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkNotified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified[id] = true
	return nil
}

func (r *outboxRepo) IncrementAttempts(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[id]++
	return nil
}

type workerOrders struct {
	order   *models.Order
	dealIDs map[string]string
}

func (w *workerOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	if w.order == nil || w.order.ID != id {
		return nil, models.ErrNotFound
	}
	return w.order, nil
}

func (w *workerOrders) UpdateCRMDealID(_ context.Context, orderID, dealID string) error {
	if w.dealIDs == nil {
		w.dealIDs = make(map[string]string)
	}
	w.dealIDs[orderID] = dealID
	return nil
}

type workerCustomers struct {
	quote    *models.Quote
	customer *models.Customer
}

func (w *workerCustomers) FindQuoteByID(context.Context, string) (*models.Quote, error) {
	if w.quote == nil {
		return nil, models.ErrNotFound
	}
	return w.quote, nil
}

func (w *workerCustomers) FindCustomerByID(context.Context, string) (*models.Customer, error) {
	if w.customer == nil {
		return nil, models.ErrNotFound
	}
	return w.customer, nil
}

type recordingCRM struct{ deals []crm.Deal }

func (r *recordingCRM) Configured() bool { return true }

func (r *recordingCRM) UpsertDeal(_ context.Context, d crm.Deal) (string, error) {
	r.deals = append(r.deals, d)
	return "deal-123", nil
}

type noopEmailer struct{}

func (noopEmailer) Configured() bool { return false }
func (noopEmailer) SendEmail(context.Context, string, string, string, string) error {
	return nil
}

func event(id, eventType string, payload map[string]any) *models.DispatchEvent {
	raw, _ := json.Marshal(payload)
	return &models.DispatchEvent{
		ID:        id,
		OrderID:   sql.NullString{String: "order-1", Valid: true},
		Actor:     "driver-1",
		EventType: eventType,
		Source:    models.SourceAPI,
		Payload:   raw,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessBatchMarksNotifiedOnSuccess(t *testing.T) {
	var received []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventType string `json:"eventType"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received = append(received, body.EventType)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := newOutboxRepo(
		event("ev-1", models.EventDriverAssigned, map[string]any{"driver_id": "driver-1"}),
		event("ev-2", models.EventOrderCanceled, nil),
	)
	w := NewWorker(repo, &workerOrders{}, &workerCustomers{}, nil, noopEmailer{}, nil, srv.URL, discardLogger())

	if got := w.ProcessBatch(context.Background()); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
	if len(received) != 2 {
		t.Fatalf("webhook received %d posts, want 2", len(received))
	}
	if !repo.notified["ev-1"] || !repo.notified["ev-2"] {
		t.Error("rows were not marked notified")
	}

	// A second cycle finds nothing to do.
	if got := w.ProcessBatch(context.Background()); got != 0 {
		t.Errorf("second batch delivered = %d, want 0", got)
	}
}

func TestProcessBatchRetriesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := newOutboxRepo(event("ev-1", models.EventDriverAssigned, nil))
	w := NewWorker(repo, &workerOrders{}, &workerCustomers{}, nil, noopEmailer{}, nil, srv.URL, discardLogger())

	if got := w.ProcessBatch(context.Background()); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
	if repo.notified["ev-1"] {
		t.Error("failed row must stay unnotified")
	}
	if repo.attempts["ev-1"] != 1 {
		t.Errorf("attempts = %d, want 1", repo.attempts["ev-1"])
	}

	// Attempts are bounded: after maxAttempts failures the row is skipped.
	for i := 0; i < 10; i++ {
		w.ProcessBatch(context.Background())
	}
	if repo.attempts["ev-1"] > w.maxAttempts {
		t.Errorf("attempts = %d, exceeds bound %d", repo.attempts["ev-1"], w.maxAttempts)
	}
}

func TestProcessBatchSyncsCRMOnDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	orders := &workerOrders{order: &models.Order{
		ID:             "order-1",
		QuoteID:        "quote-1",
		Total:          77.00,
		Currency:       "usd",
		PickupAddress:  "1 Main St",
		DropoffAddress: "9 Elm St",
	}}
	customers := &workerCustomers{
		quote:    &models.Quote{ID: "quote-1", CustomerID: "cust-1"},
		customer: &models.Customer{ID: "cust-1", Email: "jo@example.com", Name: "Jo"},
	}
	crmClient := &recordingCRM{}

	repo := newOutboxRepo(event("ev-1", models.EventStatusUpdated, map[string]any{
		"previous_status": "InTransit",
		"new_status":      "Delivered",
	}))
	w := NewWorker(repo, orders, customers, crmClient, noopEmailer{}, nil, srv.URL, discardLogger())

	if got := w.ProcessBatch(context.Background()); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
	if len(crmClient.deals) != 1 {
		t.Fatalf("crm deals = %d, want 1", len(crmClient.deals))
	}
	if crmClient.deals[0].CustomerEmail != "jo@example.com" {
		t.Errorf("deal email = %q", crmClient.deals[0].CustomerEmail)
	}
	if orders.dealIDs["order-1"] != "deal-123" {
		t.Errorf("deal id persisted = %q, want deal-123", orders.dealIDs["order-1"])
	}
}

func TestProcessBatchSkipsFanOutForNonDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	crmClient := &recordingCRM{}
	repo := newOutboxRepo(event("ev-1", models.EventStatusUpdated, map[string]any{
		"previous_status": "Accepted",
		"new_status":      "PickedUp",
	}))
	w := NewWorker(repo, &workerOrders{}, &workerCustomers{}, crmClient, noopEmailer{}, nil, srv.URL, discardLogger())

	if got := w.ProcessBatch(context.Background()); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
	if len(crmClient.deals) != 0 {
		t.Errorf("crm deals = %d, want 0 for non-delivered transition", len(crmClient.deals))
	}
}
