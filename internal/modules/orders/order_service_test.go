package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"courier-dispatch/internal/models"
	"courier-dispatch/internal/modules/events"
	"courier-dispatch/pkg/push"
)

type fakeOrderRepo struct {
	orders map[string]*models.Order
	nextID int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (f *fakeOrderRepo) add(status models.OrderStatus) *models.Order {
	f.nextID++
	o := &models.Order{
		ID:            fmt.Sprintf("order-%d", f.nextID),
		QuoteID:       fmt.Sprintf("quote-%d", f.nextID),
		Status:        status,
		Total:         77,
		Currency:      "usd",
		PickupAddress: "1 Main St",
	}
	f.orders[o.ID] = o
	return o
}

func (f *fakeOrderRepo) CreateFromQuote(_ context.Context, quote *models.Quote, sessionID, intentID string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.QuoteID == quote.ID {
			return o, nil
		}
	}
	f.nextID++
	o := &models.Order{
		ID:                fmt.Sprintf("order-%d", f.nextID),
		QuoteID:           quote.ID,
		Status:            models.StatusReadyForDispatch,
		Total:             quote.Pricing.Total,
		Currency:          "usd",
		CheckoutSessionID: sql.NullString{String: sessionID, Valid: sessionID != ""},
		PaymentIntentID:   sql.NullString{String: intentID, Valid: intentID != ""},
		PickupAddress:     quote.PickupAddress,
		DropoffAddress:    quote.DropoffAddress,
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context, _, _ int) ([]*models.Order, int, error) {
	var out []*models.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) AssignDriver(_ context.Context, orderID, driverID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.Status != models.StatusReadyForDispatch {
		return nil, models.ErrInvalidState
	}
	o.DriverID = sql.NullString{String: driverID, Valid: true}
	o.Status = models.StatusAssigned
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, from, to models.OrderStatus) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.Status != from {
		return nil, models.ErrInvalidState
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Cancel(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.Status.Terminal() {
		return nil, models.ErrInvalidState
	}
	o.Status = models.StatusCanceled
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateCRMDealID(_ context.Context, orderID, dealID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.CRMDealID = sql.NullString{String: dealID, Valid: true}
	return nil
}

type fakeDrivers struct {
	drivers map[string]*models.Driver
}

func (f *fakeDrivers) FindByID(_ context.Context, id string) (*models.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return d, nil
}

type fakeQuotes struct {
	quotes map[string]*models.Quote
}

func (f *fakeQuotes) FindQuoteByID(_ context.Context, id string) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return q, nil
}

type recordingEvents struct {
	entries []events.Entry
}

func (r *recordingEvents) Record(_ context.Context, e events.Entry) {
	r.entries = append(r.entries, e)
}

func (r *recordingEvents) RecordInbound(context.Context, models.InboundWebhookRequest, string) error {
	return nil
}

func (r *recordingEvents) ListLogs(context.Context, models.LogQuery) ([]*models.DispatchEvent, error) {
	return nil, nil
}

type failingPusher struct{ sent int }

func (p *failingPusher) Configured() bool { return true }
func (p *failingPusher) Send([]byte, push.Notification) error {
	p.sent++
	return errors.New("push service unavailable")
}

func newTestService(repo *fakeOrderRepo) (*Service, *recordingEvents) {
	rec := &recordingEvents{}
	drivers := &fakeDrivers{drivers: map[string]*models.Driver{
		"driver-1": {ID: "driver-1", Name: "Max", PushSubscription: []byte(`{"endpoint":"https://push"}`)},
	}}
	quotes := &fakeQuotes{quotes: map[string]*models.Quote{
		"quote-paid": {ID: "quote-paid", CustomerID: "cust-1", Pricing: models.Pricing{Total: 77}},
	}}
	svc := NewService(repo, drivers, quotes, rec, &failingPusher{}, slog.Default())
	return svc, rec
}

func TestAssignDriverOnlyWhenReady(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, rec := newTestService(repo)
	ready := repo.add(models.StatusReadyForDispatch)

	order, err := svc.AssignDriver(context.Background(), ready.ID, "driver-1", "dispatcher")
	if err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	if order.Status != models.StatusAssigned {
		t.Errorf("status = %s, want Assigned", order.Status)
	}
	if order.DriverID.String != "driver-1" {
		t.Errorf("driver_id = %q, want driver-1", order.DriverID.String)
	}
	if len(rec.entries) != 1 || rec.entries[0].EventType != models.EventDriverAssigned {
		t.Errorf("events = %+v, want one driver_assigned", rec.entries)
	}

	// Assigning again with a different driver must fail and leave the
	// original assignment untouched.
	if _, err := svc.AssignDriver(context.Background(), ready.ID, "driver-1", "dispatcher"); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second assign: err = %v, want ErrInvalidState", err)
	}
	stored, _ := repo.FindByID(context.Background(), ready.ID)
	if stored.DriverID.String != "driver-1" {
		t.Errorf("driver changed to %q after rejected assignment", stored.DriverID.String)
	}
}

func TestAssignDriverErrors(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, _ := newTestService(repo)
	ready := repo.add(models.StatusReadyForDispatch)

	if _, err := svc.AssignDriver(context.Background(), "missing", "driver-1", "d"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing order: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.AssignDriver(context.Background(), ready.ID, "ghost", "d"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing driver: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatusEmitsOneEvent(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, rec := newTestService(repo)
	o := repo.add(models.StatusPickedUp)
	o.DriverID = sql.NullString{String: "driver-1", Valid: true}

	order, err := svc.UpdateStatus(context.Background(), o.ID,
		models.StatusUpdateRequest{Status: "Delivered"}, "driver-1")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if order.Status != models.StatusDelivered {
		t.Errorf("status = %s, want Delivered", order.Status)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d events, want exactly 1", len(rec.entries))
	}
	e := rec.entries[0]
	if e.EventType != models.EventStatusUpdated {
		t.Errorf("event type = %s", e.EventType)
	}
	if e.Payload["previous_status"] != "PickedUp" || e.Payload["new_status"] != "Delivered" {
		t.Errorf("payload = %v, want previous_status=PickedUp new_status=Delivered", e.Payload)
	}
	if e.Payload["driver_id"] != "driver-1" {
		t.Errorf("payload driver_id = %v", e.Payload["driver_id"])
	}
}

func TestUpdateStatusRejectsBadTransitions(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, rec := newTestService(repo)

	tests := []struct {
		from models.OrderStatus
		to   string
	}{
		{models.StatusAssigned, "InTransit"},
		{models.StatusDelivered, "Canceled"},
		{models.StatusInTransit, "PickedUp"},
		{models.StatusReadyForDispatch, "Delivered"},
	}
	for _, tt := range tests {
		o := repo.add(tt.from)
		_, err := svc.UpdateStatus(context.Background(), o.ID, models.StatusUpdateRequest{Status: tt.to}, "driver-1")
		if !errors.Is(err, models.ErrInvalidState) {
			t.Errorf("%s -> %s: err = %v, want ErrInvalidState", tt.from, tt.to, err)
		}
	}
	if len(rec.entries) != 0 {
		t.Errorf("rejected transitions recorded %d events", len(rec.entries))
	}
}

func TestCancelOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, rec := newTestService(repo)

	active := repo.add(models.StatusInTransit)
	order, err := svc.CancelOrder(context.Background(), active.ID, "admin")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if order.Status != models.StatusCanceled {
		t.Errorf("status = %s, want Canceled", order.Status)
	}
	if len(rec.entries) != 1 || rec.entries[0].EventType != models.EventOrderCanceled {
		t.Errorf("events = %+v, want one order_canceled", rec.entries)
	}

	done := repo.add(models.StatusDelivered)
	if _, err := svc.CancelOrder(context.Background(), done.ID, "admin"); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("cancel delivered: err = %v, want ErrInvalidState", err)
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	svc, _ := newTestService(repo)

	first, err := svc.ConfirmPayment(context.Background(), "quote-paid", "cs_1", "pi_1")
	if err != nil {
		t.Fatalf("first ConfirmPayment: %v", err)
	}
	second, err := svc.ConfirmPayment(context.Background(), "quote-paid", "cs_1", "pi_1")
	if err != nil {
		t.Fatalf("second ConfirmPayment: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("retried webhook created a second order: %s vs %s", first.ID, second.ID)
	}
	if first.Status != models.StatusReadyForDispatch {
		t.Errorf("status = %s, want ReadyForDispatch", first.Status)
	}
}
