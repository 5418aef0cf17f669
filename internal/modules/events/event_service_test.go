package events

import (
	"context"
	"errors"
	"testing"

	"courier-dispatch/internal/models"
)

type insertRecordingRepo struct {
	outboxRepo
	inserted  []*models.DispatchEvent
	insertErr error
}

func (r *insertRecordingRepo) Insert(_ context.Context, ev *models.DispatchEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, ev)
	return nil
}

func TestRecordComposesDedupKey(t *testing.T) {
	repo := &insertRecordingRepo{}
	svc := NewService(repo, discardLogger())

	svc.Record(context.Background(), Entry{
		OrderID:   "order-1",
		Actor:     "dispatcher",
		EventType: models.EventDriverAssigned,
		Source:    models.SourceAPI,
	})

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d events, want 1", len(repo.inserted))
	}
	ev := repo.inserted[0]
	if !ev.EventID.Valid || ev.EventID.String == "" {
		t.Error("expected a composed dedup id")
	}
	if !ev.OrderID.Valid || ev.OrderID.String != "order-1" {
		t.Errorf("order id = %v", ev.OrderID)
	}
}

func TestRecordSwallowsFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"insert error", errors.New("connection reset")},
		{"duplicate dedup id", models.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &insertRecordingRepo{insertErr: tc.err}
			svc := NewService(repo, discardLogger())
			// Must not panic and must not propagate anything.
			svc.Record(context.Background(), Entry{
				OrderID:   "order-1",
				Actor:     "dispatcher",
				EventType: models.EventStatusUpdated,
				Source:    models.SourceAPI,
			})
		})
	}
}

func TestRecordInboundSurfacesDuplicate(t *testing.T) {
	repo := &insertRecordingRepo{insertErr: models.ErrConflict}
	svc := NewService(repo, discardLogger())

	err := svc.RecordInbound(context.Background(), models.InboundWebhookRequest{
		EventID:   "evt_abc",
		EventType: "workflow.completed",
	}, models.SourceAutomation)
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestRecordInboundKeepsCallerEventID(t *testing.T) {
	repo := &insertRecordingRepo{}
	svc := NewService(repo, discardLogger())

	if err := svc.RecordInbound(context.Background(), models.InboundWebhookRequest{
		EventID:   "evt_abc",
		EventType: "workflow.completed",
		Payload:   map[string]any{"run": 7},
	}, models.SourceAutomation); err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}

	ev := repo.inserted[0]
	if ev.EventID.String != "evt_abc" {
		t.Errorf("event id = %q, want caller-supplied evt_abc", ev.EventID.String)
	}
	if ev.Source != models.SourceAutomation {
		t.Errorf("source = %q", ev.Source)
	}
}
