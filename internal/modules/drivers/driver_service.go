package drivers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"courier-dispatch/internal/models"
)

// OrderLookup resolves the order behind a tracking request.
type OrderLookup interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
}

// ServiceInterface defines driver business logic.
type ServiceInterface interface {
	CreateDriver(ctx context.Context, req models.CreateDriverRequest) (*models.Driver, error)
	GetDriver(ctx context.Context, driverID string) (*models.Driver, error)
	ListDrivers(ctx context.Context) ([]*models.DriverWithLoad, error)
	SavePushSubscription(ctx context.Context, req models.PushSubscriptionRequest) error
	ReportLocation(ctx context.Context, req models.LocationUpdateRequest) (*models.DriverLocation, error)
	CurrentLocation(ctx context.Context, driverID, orderID string) (*models.DriverLocation, error)
	OrderLocation(ctx context.Context, orderID string) (*models.DriverLocation, error)
}

// Service implements driver business logic.
type Service struct {
	repo   RepositoryInterface
	orders OrderLookup
}

// NewService creates a new driver service.
func NewService(repo RepositoryInterface, orders OrderLookup) *Service {
	return &Service{repo: repo, orders: orders}
}

// CreateDriver registers a new driver.
func (s *Service) CreateDriver(ctx context.Context, req models.CreateDriverRequest) (*models.Driver, error) {
	driver, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("service.CreateDriver: %w", err)
	}
	return driver, nil
}

// GetDriver retrieves a single driver.
func (s *Service) GetDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	return s.repo.FindByID(ctx, driverID)
}

// ListDrivers returns the roster with derived availability.
func (s *Service) ListDrivers(ctx context.Context) ([]*models.DriverWithLoad, error) {
	return s.repo.ListWithLoad(ctx)
}

// SavePushSubscription stores the web-push subscription, or clears it when
// the request carries a null subscription.
func (s *Service) SavePushSubscription(ctx context.Context, req models.PushSubscriptionRequest) error {
	var raw []byte
	if req.Subscription != nil {
		var err error
		raw, err = json.Marshal(req.Subscription)
		if err != nil {
			return fmt.Errorf("service.SavePushSubscription: %w", err)
		}
	}
	return s.repo.UpdatePushSubscription(ctx, req.DriverID, raw)
}

// ReportLocation appends a location row to the driver's time series.
func (s *Service) ReportLocation(ctx context.Context, req models.LocationUpdateRequest) (*models.DriverLocation, error) {
	if _, err := s.repo.FindByID(ctx, req.DriverID); err != nil {
		return nil, err
	}

	loc := &models.DriverLocation{
		DriverID:  req.DriverID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.OrderID != "" {
		loc.OrderID = sql.NullString{String: req.OrderID, Valid: true}
	}
	if req.Accuracy != nil {
		loc.Accuracy = sql.NullFloat64{Float64: *req.Accuracy, Valid: true}
	}
	if req.Heading != nil {
		loc.Heading = sql.NullFloat64{Float64: *req.Heading, Valid: true}
	}
	if req.Speed != nil {
		loc.Speed = sql.NullFloat64{Float64: *req.Speed, Valid: true}
	}

	if err := s.repo.InsertLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("service.ReportLocation: %w", err)
	}
	return loc, nil
}

// CurrentLocation returns the most recent location for a driver.
func (s *Service) CurrentLocation(ctx context.Context, driverID, orderID string) (*models.DriverLocation, error) {
	return s.repo.LatestLocation(ctx, driverID, orderID)
}

// OrderLocation returns the latest location of the driver assigned to an
// order, for the live-tracking stream.
func (s *Service) OrderLocation(ctx context.Context, orderID string) (*models.DriverLocation, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.DriverID.Valid {
		return nil, models.ErrNotFound
	}
	return s.repo.LatestLocation(ctx, order.DriverID.String, orderID)
}
