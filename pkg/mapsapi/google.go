// Package mapsapi provides travel-distance lookups for the nearest-driver
// dispatch strategy, backed by the Google Maps Distance Matrix API.
package mapsapi

import (
	"context"
	"fmt"

	"courier-dispatch/internal/models"

	"googlemaps.github.io/maps"
)

// DistanceProvider resolves the travel distance in meters from a coordinate
// to a street address. Implementations must be safe for concurrent use.
type DistanceProvider interface {
	Configured() bool
	TravelDistanceMeters(ctx context.Context, lat, lng float64, destination string) (int, error)
}

// GoogleProvider implements DistanceProvider with the Distance Matrix API.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider builds a provider. An empty API key yields an
// unconfigured provider instead of an error.
func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	if apiKey == "" {
		return &GoogleProvider{}, nil
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("mapsapi.NewGoogleProvider: %w", err)
	}
	return &GoogleProvider{client: c}, nil
}

func (g *GoogleProvider) Configured() bool { return g.client != nil }

// TravelDistanceMeters returns the driving distance from (lat,lng) to the
// destination address.
func (g *GoogleProvider) TravelDistanceMeters(ctx context.Context, lat, lng float64, destination string) (int, error) {
	if g.client == nil {
		return 0, models.ErrUnconfigured
	}

	resp, err := g.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", lat, lng)},
		Destinations: []string{destination},
		Units:        maps.UnitsImperial,
	})
	if err != nil {
		return 0, fmt.Errorf("mapsapi.TravelDistanceMeters: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("mapsapi.TravelDistanceMeters: empty matrix response")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("mapsapi.TravelDistanceMeters: element status %s", el.Status)
	}
	return el.Distance.Meters, nil
}
