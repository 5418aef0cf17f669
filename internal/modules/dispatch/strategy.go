package dispatch

import (
	"sort"

	"courier-dispatch/internal/models"
)

// Strategy names accepted by the suggestion endpoint. The operator's
// preference lives client-side; the server just honors whichever name
// arrives on the request.
const (
	StrategyWorkload   = "workload"
	StrategyRoundRobin = "roundRobin"
	StrategyNearest    = "nearest"
)

// MaxSuggestions caps every candidate list.
const MaxSuggestions = 3

// ValidStrategy reports whether s names a known ranking strategy.
func ValidStrategy(s string) bool {
	switch s {
	case StrategyWorkload, StrategyRoundRobin, StrategyNearest:
		return true
	}
	return false
}

func availableOnly(roster []*models.DriverWithLoad) []*models.DriverWithLoad {
	avail := make([]*models.DriverWithLoad, 0, len(roster))
	for _, d := range roster {
		if d.Available {
			avail = append(avail, d)
		}
	}
	return avail
}

// head copies the first MaxSuggestions entries of the roster. Used when no
// driver is available: the dispatcher still gets something to pick from.
func head(roster []*models.DriverWithLoad) []*models.DriverWithLoad {
	n := len(roster)
	if n > MaxSuggestions {
		n = MaxSuggestions
	}
	out := make([]*models.DriverWithLoad, n)
	copy(out, roster[:n])
	return out
}

// rankByWorkload sorts available drivers ascending by active-order count.
// The sort is stable, so ties keep their roster order.
func rankByWorkload(roster []*models.DriverWithLoad) []*models.DriverWithLoad {
	avail := availableOnly(roster)
	if len(avail) == 0 {
		return head(roster)
	}
	ranked := make([]*models.DriverWithLoad, len(avail))
	copy(ranked, avail)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ActiveOrders < ranked[j].ActiveOrders
	})
	return head(ranked)
}

// rankRoundRobin returns up to MaxSuggestions available drivers starting at
// (cursor+1) mod N, plus the cursor the client should send next time. The
// cursor advances by exactly one per call regardless of how many drivers
// come back, so successive calls walk the rotation one step at a time.
func rankRoundRobin(roster []*models.DriverWithLoad, cursor int) ([]*models.DriverWithLoad, int) {
	avail := availableOnly(roster)
	n := len(avail)
	if n == 0 {
		return head(roster), cursor
	}

	start := ((cursor+1)%n + n) % n // tolerate negative or oversized cursors
	count := MaxSuggestions
	if count > n {
		count = n
	}
	out := make([]*models.DriverWithLoad, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, avail[(start+i)%n])
	}
	return out, start
}

// scoredDriver pairs a candidate with its travel distance to the pickup.
type scoredDriver struct {
	driver *models.DriverWithLoad
	meters int
}

// rankByDistance sorts scored drivers ascending by distance, stable on
// roster order, and truncates to MaxSuggestions.
func rankByDistance(scored []scoredDriver) []scoredDriver {
	ranked := make([]scoredDriver, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].meters < ranked[j].meters
	})
	if len(ranked) > MaxSuggestions {
		ranked = ranked[:MaxSuggestions]
	}
	return ranked
}
