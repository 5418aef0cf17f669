package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"courier-dispatch/internal/models"
)

func roster(entries ...*models.DriverWithLoad) []*models.DriverWithLoad {
	return entries
}

func driver(id string, active int, available bool) *models.DriverWithLoad {
	return &models.DriverWithLoad{
		Driver:       models.Driver{ID: id, Name: "driver " + id},
		ActiveOrders: active,
		Available:    available,
	}
}

func ids(ranked []*models.DriverWithLoad) []string {
	out := make([]string, len(ranked))
	for i, d := range ranked {
		out[i] = d.ID
	}
	return out
}

func assertIDs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRankByWorkload(t *testing.T) {
	r := roster(
		driver("a", 2, true),
		driver("b", 0, true),
		driver("c", 1, true),
		driver("d", 0, true),
	)
	assertIDs(t, ids(rankByWorkload(r)), "b", "d", "c")
}

func TestRankByWorkloadStableTieBreak(t *testing.T) {
	r := roster(
		driver("a", 1, true),
		driver("b", 1, true),
		driver("c", 1, true),
		driver("d", 1, true),
	)
	// All tied: roster order wins.
	assertIDs(t, ids(rankByWorkload(r)), "a", "b", "c")
}

func TestRankByWorkloadZeroAvailable(t *testing.T) {
	r := roster(
		driver("a", 3, false),
		driver("b", 1, false),
		driver("c", 2, false),
		driver("d", 4, false),
	)
	// Nobody available: hand back the head of the full roster.
	assertIDs(t, ids(rankByWorkload(r)), "a", "b", "c")
}

func TestRankRoundRobinAdvancesAndWraps(t *testing.T) {
	r := roster(
		driver("a", 0, true),
		driver("b", 0, true),
		driver("c", 0, true),
		driver("d", 0, true),
	)

	ranked, next := rankRoundRobin(r, -1)
	assertIDs(t, ids(ranked), "a", "b", "c")
	if next != 0 {
		t.Fatalf("next cursor = %d, want 0", next)
	}

	ranked, next = rankRoundRobin(r, next)
	assertIDs(t, ids(ranked), "b", "c", "d")
	if next != 1 {
		t.Fatalf("next cursor = %d, want 1", next)
	}

	// Wraparound past the end of the list.
	ranked, next = rankRoundRobin(r, 3)
	assertIDs(t, ids(ranked), "a", "b", "c")
	if next != 0 {
		t.Fatalf("next cursor = %d, want 0", next)
	}
}

func TestRankRoundRobinSkipsUnavailable(t *testing.T) {
	r := roster(
		driver("a", 0, true),
		driver("b", 1, false),
		driver("c", 0, true),
	)
	ranked, next := rankRoundRobin(r, -1)
	assertIDs(t, ids(ranked), "a", "c")
	if next != 0 {
		t.Fatalf("next cursor = %d, want 0", next)
	}
}

func TestRankRoundRobinZeroAvailableKeepsCursor(t *testing.T) {
	r := roster(driver("a", 1, false), driver("b", 1, false))
	ranked, next := rankRoundRobin(r, 5)
	assertIDs(t, ids(ranked), "a", "b")
	if next != 5 {
		t.Fatalf("next cursor = %d, want unchanged 5", next)
	}
}

func TestRankByDistance(t *testing.T) {
	scored := []scoredDriver{
		{driver: driver("a", 0, true), meters: 900},
		{driver: driver("b", 0, true), meters: 150},
		{driver: driver("c", 0, true), meters: 400},
		{driver: driver("d", 0, true), meters: 2500},
	}
	ranked := rankByDistance(scored)
	got := make([]string, len(ranked))
	for i, sd := range ranked {
		got[i] = sd.driver.ID
	}
	assertIDs(t, got, "b", "c", "a")
}

// Service-level fakes for the nearest strategy and its fallbacks.

type fakeRoster struct{ drivers []*models.DriverWithLoad }

func (f *fakeRoster) ListDrivers(context.Context) ([]*models.DriverWithLoad, error) {
	return f.drivers, nil
}

type fakeLocations struct{ byDriver map[string]*models.DriverLocation }

func (f *fakeLocations) CurrentLocation(_ context.Context, driverID, _ string) (*models.DriverLocation, error) {
	loc, ok := f.byDriver[driverID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return loc, nil
}

type fakeDispatchOrders struct{ orders map[string]*models.Order }

func (f *fakeDispatchOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return o, nil
}

type fakeDistance struct {
	configured bool
	err        error
}

func (f *fakeDistance) Configured() bool { return f.configured }

func (f *fakeDistance) TravelDistanceMeters(_ context.Context, lat, _ float64, _ string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	// Tests encode the expected distance directly in the latitude.
	return int(lat), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSuggestNearestRanksByDistance(t *testing.T) {
	r := roster(driver("a", 0, true), driver("b", 0, true), driver("c", 0, true))
	svc := NewService(
		&fakeRoster{drivers: r},
		&fakeLocations{byDriver: map[string]*models.DriverLocation{
			"a": {DriverID: "a", Latitude: 3000},
			"b": {DriverID: "b", Latitude: 500},
			"c": {DriverID: "c", Latitude: 1200},
		}},
		&fakeDispatchOrders{orders: map[string]*models.Order{
			"order-1": {ID: "order-1", PickupAddress: "1 Main St"},
		}},
		&fakeDistance{configured: true},
		testLogger(),
	)

	resp, err := svc.Suggest(context.Background(), "order-1", StrategyNearest, -1)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if resp.Fallback != "" {
		t.Fatalf("unexpected fallback %q", resp.Fallback)
	}
	got := make([]string, len(resp.Candidates))
	for i, c := range resp.Candidates {
		got[i] = c.DriverID
	}
	assertIDs(t, got, "b", "c", "a")
	if resp.Candidates[0].DistanceMeters == nil || *resp.Candidates[0].DistanceMeters != 500 {
		t.Errorf("closest candidate distance = %v, want 500", resp.Candidates[0].DistanceMeters)
	}
}

func TestSuggestNearestFallsBackToWorkload(t *testing.T) {
	r := roster(driver("a", 2, true), driver("b", 0, true))
	cases := []struct {
		name string
		svc  *Service
	}{
		{
			name: "no locations known",
			svc: NewService(&fakeRoster{drivers: r}, &fakeLocations{},
				&fakeDispatchOrders{orders: map[string]*models.Order{"order-1": {ID: "order-1", PickupAddress: "1 Main St"}}},
				&fakeDistance{configured: true}, testLogger()),
		},
		{
			name: "every distance lookup fails",
			svc: NewService(&fakeRoster{drivers: r},
				&fakeLocations{byDriver: map[string]*models.DriverLocation{"a": {DriverID: "a"}, "b": {DriverID: "b"}}},
				&fakeDispatchOrders{orders: map[string]*models.Order{"order-1": {ID: "order-1", PickupAddress: "1 Main St"}}},
				&fakeDistance{configured: true, err: errors.New("matrix down")}, testLogger()),
		},
		{
			name: "pickup address missing",
			svc: NewService(&fakeRoster{drivers: r}, &fakeLocations{},
				&fakeDispatchOrders{orders: map[string]*models.Order{"order-1": {ID: "order-1"}}},
				&fakeDistance{configured: true}, testLogger()),
		},
		{
			name: "provider unconfigured",
			svc: NewService(&fakeRoster{drivers: r}, &fakeLocations{},
				&fakeDispatchOrders{orders: map[string]*models.Order{"order-1": {ID: "order-1", PickupAddress: "1 Main St"}}},
				&fakeDistance{}, testLogger()),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := tc.svc.Suggest(context.Background(), "order-1", StrategyNearest, -1)
			if err != nil {
				t.Fatalf("Suggest: %v", err)
			}
			if resp.Fallback != StrategyWorkload {
				t.Fatalf("fallback = %q, want %q", resp.Fallback, StrategyWorkload)
			}
			got := make([]string, len(resp.Candidates))
			for i, c := range resp.Candidates {
				got[i] = c.DriverID
			}
			assertIDs(t, got, "b", "a")
		})
	}
}

func TestSuggestNearestUnknownOrder(t *testing.T) {
	svc := NewService(&fakeRoster{}, &fakeLocations{}, &fakeDispatchOrders{},
		&fakeDistance{configured: true}, testLogger())
	_, err := svc.Suggest(context.Background(), "ghost", StrategyNearest, -1)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
