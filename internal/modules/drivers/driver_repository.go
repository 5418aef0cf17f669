package drivers

import (
	"context"
	"errors"
	"fmt"

	"courier-dispatch/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines storage operations for drivers and their
// location time series.
type RepositoryInterface interface {
	Create(ctx context.Context, req models.CreateDriverRequest) (*models.Driver, error)
	FindByID(ctx context.Context, driverID string) (*models.Driver, error)
	ListWithLoad(ctx context.Context) ([]*models.DriverWithLoad, error)
	UpdatePushSubscription(ctx context.Context, driverID string, subscription []byte) error
	InsertLocation(ctx context.Context, loc *models.DriverLocation) error
	LatestLocation(ctx context.Context, driverID, orderID string) (*models.DriverLocation, error)
}

// Repository implements RepositoryInterface against Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new driver repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Create inserts a new driver.
func (r *Repository) Create(ctx context.Context, req models.CreateDriverRequest) (*models.Driver, error) {
	query := `
		INSERT INTO drivers (name, phone, vehicle_details)
		VALUES ($1, $2, $3)
		RETURNING id, name, phone, vehicle_details, user_id, push_subscription, created_at, updated_at`

	d := &models.Driver{}
	err := r.db.QueryRow(ctx, query, req.Name, req.Phone, req.VehicleDetails).Scan(
		&d.ID, &d.Name, &d.Phone, &d.VehicleDetails, &d.UserID, &d.PushSubscription,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("repository.CreateDriver: %w", err)
	}
	return d, nil
}

// FindByID retrieves a single driver.
func (r *Repository) FindByID(ctx context.Context, driverID string) (*models.Driver, error) {
	query := `
		SELECT id, name, phone, vehicle_details, user_id, push_subscription, created_at, updated_at
		FROM drivers
		WHERE id = $1`

	d := &models.Driver{}
	err := r.db.QueryRow(ctx, query, driverID).Scan(
		&d.ID, &d.Name, &d.Phone, &d.VehicleDetails, &d.UserID, &d.PushSubscription,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindDriverByID: %w", err)
	}
	return d, nil
}

// ListWithLoad returns the full roster annotated with the active-order
// aggregate. Availability is computed here, on read, so it can never drift
// from the orders table: active load counts every order outside the
// terminal statuses.
func (r *Repository) ListWithLoad(ctx context.Context) ([]*models.DriverWithLoad, error) {
	query := `
		SELECT d.id, d.name, d.phone, d.vehicle_details, d.user_id, d.push_subscription,
		       d.created_at, d.updated_at,
		       COUNT(o.id) FILTER (WHERE o.status NOT IN ($1, $2)) AS active_orders
		FROM drivers d
		LEFT JOIN orders o ON o.driver_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at`

	rows, err := r.db.Query(ctx, query, models.StatusDelivered, models.StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("repository.ListWithLoad: %w", err)
	}
	defer rows.Close()

	var out []*models.DriverWithLoad
	for rows.Next() {
		d := &models.DriverWithLoad{}
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Phone, &d.VehicleDetails, &d.UserID, &d.PushSubscription,
			&d.CreatedAt, &d.UpdatedAt, &d.ActiveOrders,
		); err != nil {
			return nil, fmt.Errorf("repository.ListWithLoad scan: %w", err)
		}
		d.Available = d.ActiveOrders == 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListWithLoad rows: %w", err)
	}
	return out, nil
}

// UpdatePushSubscription stores or clears (nil) a driver's subscription.
func (r *Repository) UpdatePushSubscription(ctx context.Context, driverID string, subscription []byte) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE drivers SET push_subscription = $2, updated_at = NOW() WHERE id = $1`,
		driverID, subscription)
	if err != nil {
		return fmt.Errorf("repository.UpdatePushSubscription: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertLocation appends a location row. The time series is append-only.
func (r *Repository) InsertLocation(ctx context.Context, loc *models.DriverLocation) error {
	query := `
		INSERT INTO driver_locations (driver_id, order_id, latitude, longitude, accuracy, heading, speed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, recorded_at`

	err := r.db.QueryRow(ctx, query,
		loc.DriverID, loc.OrderID, loc.Latitude, loc.Longitude,
		loc.Accuracy, loc.Heading, loc.Speed,
	).Scan(&loc.ID, &loc.RecordedAt)
	if err != nil {
		return fmt.Errorf("repository.InsertLocation: %w", err)
	}
	return nil
}

// LatestLocation returns the most recent location row for a driver,
// optionally filtered by order.
func (r *Repository) LatestLocation(ctx context.Context, driverID, orderID string) (*models.DriverLocation, error) {
	query := `
		SELECT id, driver_id, order_id, latitude, longitude, accuracy, heading, speed, recorded_at
		FROM driver_locations
		WHERE driver_id = $1 AND ($2 = '' OR order_id = $2::uuid)
		ORDER BY recorded_at DESC
		LIMIT 1`

	loc := &models.DriverLocation{}
	err := r.db.QueryRow(ctx, query, driverID, orderID).Scan(
		&loc.ID, &loc.DriverID, &loc.OrderID, &loc.Latitude, &loc.Longitude,
		&loc.Accuracy, &loc.Heading, &loc.Speed, &loc.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.LatestLocation: %w", err)
	}
	return loc, nil
}
