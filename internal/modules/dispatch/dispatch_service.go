package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"courier-dispatch/internal/models"
	"courier-dispatch/pkg/mapsapi"
)

// RosterSource supplies the driver roster with derived load.
type RosterSource interface {
	ListDrivers(ctx context.Context) ([]*models.DriverWithLoad, error)
}

// LocationSource supplies the latest known location per driver.
type LocationSource interface {
	CurrentLocation(ctx context.Context, driverID, orderID string) (*models.DriverLocation, error)
}

// OrderLookup resolves the order whose pickup the nearest strategy targets.
type OrderLookup interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
}

// ServiceInterface defines the suggestion engine. It produces ranked
// candidates only; the authoritative assignment lives in the orders module
// and re-validates order state regardless of how the driver was chosen.
type ServiceInterface interface {
	Suggest(ctx context.Context, orderID, strategy string, cursor int) (*models.SuggestionResponse, error)
}

// Service assembles roster, locations and travel distances and hands them
// to the pure ranking functions in strategy.go.
type Service struct {
	roster    RosterSource
	locations LocationSource
	orders    OrderLookup
	distance  mapsapi.DistanceProvider
	logger    *slog.Logger
}

// NewService creates a new dispatch suggestion service.
func NewService(roster RosterSource, locations LocationSource, orders OrderLookup, distance mapsapi.DistanceProvider, logger *slog.Logger) *Service {
	return &Service{roster: roster, locations: locations, orders: orders, distance: distance, logger: logger}
}

// Suggest returns up to MaxSuggestions ranked candidates for an order.
func (s *Service) Suggest(ctx context.Context, orderID, strategy string, cursor int) (*models.SuggestionResponse, error) {
	roster, err := s.roster.ListDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Suggest: %w", err)
	}

	resp := &models.SuggestionResponse{OrderID: orderID, Strategy: strategy}
	switch strategy {
	case StrategyRoundRobin:
		ranked, next := rankRoundRobin(roster, cursor)
		resp.Candidates = toCandidates(ranked)
		resp.NextCursor = &next
		return resp, nil

	case StrategyNearest:
		candidates, err := s.rankNearest(ctx, orderID, roster)
		if err == nil {
			resp.Candidates = candidates
			return resp, nil
		}
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		s.logger.Warn("nearest strategy unavailable, falling back to workload",
			"order_id", orderID, "reason", err)
		resp.Fallback = StrategyWorkload
		resp.Candidates = toCandidates(rankByWorkload(roster))
		return resp, nil

	default:
		resp.Strategy = StrategyWorkload
		resp.Candidates = toCandidates(rankByWorkload(roster))
		return resp, nil
	}
}

// rankNearest scores every available driver with a known location by travel
// distance to the order's pickup address. Any condition that leaves nothing
// to score is returned as an error so the caller can fall back; an unknown
// order surfaces as ErrNotFound instead.
func (s *Service) rankNearest(ctx context.Context, orderID string, roster []*models.DriverWithLoad) ([]models.DispatchCandidate, error) {
	if orderID == "" {
		return nil, errors.New("no order to locate pickup for")
	}
	if !s.distance.Configured() {
		return nil, models.ErrUnconfigured
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("order lookup: %w", err)
	}
	if order.PickupAddress == "" {
		return nil, errors.New("order has no pickup address")
	}

	avail := availableOnly(roster)
	if len(avail) == 0 {
		return nil, errors.New("no available drivers")
	}

	scored := make([]scoredDriver, 0, len(avail))
	for _, d := range avail {
		loc, err := s.locations.CurrentLocation(ctx, d.ID, "")
		if err != nil {
			continue // driver has never reported, skip
		}
		meters, err := s.distance.TravelDistanceMeters(ctx, loc.Latitude, loc.Longitude, order.PickupAddress)
		if err != nil {
			s.logger.Warn("distance lookup failed", "driver_id", d.ID, "error", err)
			continue
		}
		scored = append(scored, scoredDriver{driver: d, meters: meters})
	}
	if len(scored) == 0 {
		return nil, errors.New("no driver could be scored")
	}

	ranked := rankByDistance(scored)
	out := make([]models.DispatchCandidate, 0, len(ranked))
	for _, sd := range ranked {
		c := toCandidate(sd.driver)
		m := sd.meters
		c.DistanceMeters = &m
		out = append(out, c)
	}
	return out, nil
}

func toCandidate(d *models.DriverWithLoad) models.DispatchCandidate {
	return models.DispatchCandidate{
		DriverID:     d.ID,
		Name:         d.Name,
		ActiveOrders: d.ActiveOrders,
		Available:    d.Available,
	}
}

func toCandidates(ranked []*models.DriverWithLoad) []models.DispatchCandidate {
	out := make([]models.DispatchCandidate, 0, len(ranked))
	for _, d := range ranked {
		out = append(out, toCandidate(d))
	}
	return out
}
