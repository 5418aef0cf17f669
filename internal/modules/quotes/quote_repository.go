package quotes

import (
	"context"
	"errors"
	"fmt"

	"courier-dispatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines storage operations for customers and quotes.
type RepositoryInterface interface {
	UpsertCustomer(ctx context.Context, email, name, phone string) (*models.Customer, error)
	CreateQuote(ctx context.Context, q *models.Quote) (*models.Quote, error)
	FindQuoteByID(ctx context.Context, quoteID string) (*models.Quote, error)
	FindCustomerByID(ctx context.Context, customerID string) (*models.Customer, error)
	SetCheckoutSession(ctx context.Context, quoteID, sessionID string) error
}

// Repository implements RepositoryInterface against Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new quote repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// UpsertCustomer inserts or updates a customer keyed on email. Callers pass
// the already-normalized (lowercased, trimmed) address.
func (r *Repository) UpsertCustomer(ctx context.Context, email, name, phone string) (*models.Customer, error) {
	query := `
		INSERT INTO customers (email, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    phone = COALESCE(NULLIF(EXCLUDED.phone, ''), customers.phone),
		    updated_at = NOW()
		RETURNING id, email, name, phone, created_at, updated_at`

	customer := &models.Customer{}
	err := r.db.QueryRow(ctx, query, email, name, phone).Scan(
		&customer.ID, &customer.Email, &customer.Name, &customer.Phone,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repository.UpsertCustomer: %w", err)
	}
	return customer, nil
}

// CreateQuote inserts a new quote with its pricing breakdown.
func (r *Repository) CreateQuote(ctx context.Context, q *models.Quote) (*models.Quote, error) {
	query := `
		INSERT INTO quotes (
			customer_id, pickup_address, dropoff_address, distance_mi, weight_lb,
			base_fee, per_mile_rate, fuel_pct, subtotal, fuel, total,
			status, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		q.CustomerID, q.PickupAddress, q.DropoffAddress, q.DistanceMi, q.WeightLb,
		q.Pricing.BaseFee, q.Pricing.PerMileRate, q.Pricing.FuelPct,
		q.Pricing.Subtotal, q.Pricing.Fuel, q.Pricing.Total,
		q.Status, q.ExpiresAt,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository.CreateQuote: %w", err)
	}
	return q, nil
}

// FindQuoteByID retrieves a single quote.
func (r *Repository) FindQuoteByID(ctx context.Context, quoteID string) (*models.Quote, error) {
	query := `
		SELECT id, customer_id, pickup_address, dropoff_address, distance_mi, weight_lb,
		       base_fee, per_mile_rate, fuel_pct, subtotal, fuel, total,
		       status, expires_at, checkout_session_id, created_at
		FROM quotes
		WHERE id = $1`

	q := &models.Quote{}
	err := r.db.QueryRow(ctx, query, quoteID).Scan(
		&q.ID, &q.CustomerID, &q.PickupAddress, &q.DropoffAddress, &q.DistanceMi, &q.WeightLb,
		&q.Pricing.BaseFee, &q.Pricing.PerMileRate, &q.Pricing.FuelPct,
		&q.Pricing.Subtotal, &q.Pricing.Fuel, &q.Pricing.Total,
		&q.Status, &q.ExpiresAt, &q.CheckoutSessionID, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindQuoteByID: %w", err)
	}
	q.Pricing.DistanceMi = q.DistanceMi
	return q, nil
}

// FindCustomerByID retrieves a customer, used for email notifications.
func (r *Repository) FindCustomerByID(ctx context.Context, customerID string) (*models.Customer, error) {
	query := `SELECT id, email, name, phone, created_at, updated_at FROM customers WHERE id = $1`

	customer := &models.Customer{}
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&customer.ID, &customer.Email, &customer.Name, &customer.Phone,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindCustomerByID: %w", err)
	}
	return customer, nil
}

// SetCheckoutSession records the checkout session id on the quote. The
// conditional write keeps the first session as the idempotency anchor even
// if two checkout calls race.
func (r *Repository) SetCheckoutSession(ctx context.Context, quoteID, sessionID string) error {
	query := `
		UPDATE quotes
		SET checkout_session_id = $2, status = $3
		WHERE id = $1 AND checkout_session_id IS NULL`

	cmd, err := r.db.Exec(ctx, query, quoteID, sessionID, models.QuoteStatusAwaitingPayment)
	if err != nil {
		return fmt.Errorf("repository.SetCheckoutSession: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}
