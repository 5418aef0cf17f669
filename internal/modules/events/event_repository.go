package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courier-dispatch/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines storage operations for the dispatch-event
// audit log and its outbox columns.
type RepositoryInterface interface {
	Insert(ctx context.Context, ev *models.DispatchEvent) error
	List(ctx context.Context, q models.LogQuery) ([]*models.DispatchEvent, error)
	FetchUnnotified(ctx context.Context, limit, maxAttempts int) ([]*models.DispatchEvent, error)
	MarkNotified(ctx context.Context, eventID string) error
	IncrementAttempts(ctx context.Context, eventID string) error
}

// Repository implements RepositoryInterface against Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new event repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Insert appends an audit event. A duplicate dedup event_id returns
// ErrConflict, which callers treat as a harmless retried delivery.
func (r *Repository) Insert(ctx context.Context, ev *models.DispatchEvent) error {
	query := `
		INSERT INTO dispatch_events (order_id, actor, event_type, source, event_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		ev.OrderID, ev.Actor, ev.EventType, ev.Source, ev.EventID, ev.Payload,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.InsertEvent: %w", err)
	}
	return nil
}

// List returns audit events newest first, honoring the admin log filters.
func (r *Repository) List(ctx context.Context, q models.LogQuery) ([]*models.DispatchEvent, error) {
	var where []string
	var args []interface{}
	argIdx := 1

	if q.EventType != "" {
		where = append(where, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, q.EventType)
		argIdx++
	}
	if q.OrderID != "" {
		where = append(where, fmt.Sprintf("order_id = $%d", argIdx))
		args = append(args, q.OrderID)
		argIdx++
	}
	if !q.DateFrom.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, q.DateFrom)
		argIdx++
	}
	if !q.DateTo.IsZero() {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, q.DateTo)
		argIdx++
	}

	limit := q.Limit
	if limit < 1 || limit > 200 {
		limit = 200
	}
	args = append(args, limit)

	query := `
		SELECT id, order_id, actor, event_type, source, event_id, payload,
		       notified_at, notify_attempts, created_at
		FROM dispatch_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.ListEvents: %w", err)
	}
	defer rows.Close()

	var out []*models.DispatchEvent
	for rows.Next() {
		ev := &models.DispatchEvent{}
		if err := rows.Scan(
			&ev.ID, &ev.OrderID, &ev.Actor, &ev.EventType, &ev.Source, &ev.EventID,
			&ev.Payload, &ev.NotifiedAt, &ev.NotifyAttempts, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository.ListEvents scan: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListEvents rows: %w", err)
	}
	return out, nil
}

// FetchUnnotified returns pending outbox rows, oldest first, skipping rows
// that have exhausted their delivery attempts.
func (r *Repository) FetchUnnotified(ctx context.Context, limit, maxAttempts int) ([]*models.DispatchEvent, error) {
	query := `
		SELECT id, order_id, actor, event_type, source, event_id, payload,
		       notified_at, notify_attempts, created_at
		FROM dispatch_events
		WHERE notified_at IS NULL AND notify_attempts < $2
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("repository.FetchUnnotified: %w", err)
	}
	defer rows.Close()

	var out []*models.DispatchEvent
	for rows.Next() {
		ev := &models.DispatchEvent{}
		if err := rows.Scan(
			&ev.ID, &ev.OrderID, &ev.Actor, &ev.EventType, &ev.Source, &ev.EventID,
			&ev.Payload, &ev.NotifiedAt, &ev.NotifyAttempts, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository.FetchUnnotified scan: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.FetchUnnotified rows: %w", err)
	}
	return out, nil
}

// MarkNotified stamps a delivered outbox row.
func (r *Repository) MarkNotified(ctx context.Context, eventID string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE dispatch_events SET notified_at = NOW() WHERE id = $1 AND notified_at IS NULL`, eventID)
	if err != nil {
		return fmt.Errorf("repository.MarkNotified: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IncrementAttempts bumps the delivery-attempt counter after a failure.
func (r *Repository) IncrementAttempts(ctx context.Context, eventID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE dispatch_events SET notify_attempts = notify_attempts + 1 WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("repository.IncrementAttempts: %w", err)
	}
	return nil
}
