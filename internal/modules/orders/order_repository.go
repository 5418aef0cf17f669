package orders

import (
	"context"
	"errors"
	"fmt"

	"courier-dispatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines storage operations for orders. Every lifecycle
// mutation is a single conditional write guarded on the current status, so
// two concurrent requests can never both pass a read-then-write check.
type RepositoryInterface interface {
	CreateFromQuote(ctx context.Context, quote *models.Quote, sessionID, paymentIntentID string) (*models.Order, error)
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error)
	AssignDriver(ctx context.Context, orderID, driverID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, orderID string) (*models.Order, error)
	UpdateCRMDealID(ctx context.Context, orderID, dealID string) error
}

// Repository implements RepositoryInterface against Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `id, quote_id, driver_id, status, total, currency,
	payment_intent_id, checkout_session_id, crm_deal_id,
	pickup_address, dropoff_address, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID, &o.QuoteID, &o.DriverID, &o.Status, &o.Total, &o.Currency,
		&o.PaymentIntentID, &o.CheckoutSessionID, &o.CRMDealID,
		&o.PickupAddress, &o.DropoffAddress, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return o, nil
}

// CreateFromQuote creates the order for a paid quote. The quote_id unique
// constraint makes retried payment webhooks idempotent: the existing order
// is returned instead of a duplicate.
func (r *Repository) CreateFromQuote(ctx context.Context, quote *models.Quote, sessionID, paymentIntentID string) (*models.Order, error) {
	query := fmt.Sprintf(`
		INSERT INTO orders (
			quote_id, status, total, currency,
			payment_intent_id, checkout_session_id,
			pickup_address, dropoff_address
		)
		VALUES ($1, $2, $3, 'usd', $4, $5, $6, $7)
		ON CONFLICT (quote_id) DO NOTHING
		RETURNING %s`, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query,
		quote.ID, models.StatusReadyForDispatch, quote.Pricing.Total,
		paymentIntentID, sessionID, quote.PickupAddress, quote.DropoffAddress,
	))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("repository.CreateFromQuote: %w", err)
	}

	// Conflict path: the order already exists for this quote.
	existing, err := scanOrder(r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM orders WHERE quote_id = $1`, orderColumns), quote.ID))
	if err != nil {
		return nil, fmt.Errorf("repository.CreateFromQuote: existing: %w", err)
	}
	return existing, nil
}

// FindByID retrieves a single order.
func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns), orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return order, nil
}

// ListAll retrieves orders newest first with pagination.
func (r *Repository) ListAll(ctx context.Context, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, orderColumns)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListAll.Query: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListAll.Scan: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListAll.Rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListAll.Count: %w", err)
	}
	return orders, total, nil
}

// AssignDriver atomically assigns a driver to a ready order. The status
// guard lives in the WHERE clause; zero rows affected means the order either
// does not exist or is not ReadyForDispatch.
func (r *Repository) AssignDriver(ctx context.Context, orderID, driverID string) (*models.Order, error) {
	query := fmt.Sprintf(`
		UPDATE orders
		SET driver_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING %s`, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query,
		orderID, driverID, models.StatusAssigned, models.StatusReadyForDispatch))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("repository.AssignDriver: %w", err)
	}

	// Distinguish "no such order" from "guard violated".
	if _, ferr := r.FindByID(ctx, orderID); ferr != nil {
		return nil, ferr
	}
	return nil, models.ErrInvalidState
}

// UpdateStatus performs a conditional transition from one status to another.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (*models.Order, error) {
	query := fmt.Sprintf(`
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING %s`, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, to, from))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("repository.UpdateStatus: %w", err)
	}

	if _, ferr := r.FindByID(ctx, orderID); ferr != nil {
		return nil, ferr
	}
	return nil, models.ErrInvalidState
}

// Cancel moves a non-terminal order to Canceled.
func (r *Repository) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	query := fmt.Sprintf(`
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($3, $4)
		RETURNING %s`, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query,
		orderID, models.StatusCanceled, models.StatusDelivered, models.StatusCanceled))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("repository.Cancel: %w", err)
	}

	if _, ferr := r.FindByID(ctx, orderID); ferr != nil {
		return nil, ferr
	}
	return nil, models.ErrInvalidState
}

// UpdateCRMDealID records the CRM-side deal id after a successful sync.
func (r *Repository) UpdateCRMDealID(ctx context.Context, orderID, dealID string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE orders SET crm_deal_id = $2, updated_at = NOW() WHERE id = $1`, orderID, dealID)
	if err != nil {
		return fmt.Errorf("repository.UpdateCRMDealID: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
