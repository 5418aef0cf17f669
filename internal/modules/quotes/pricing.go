package quotes

import (
	"math"

	"courier-dispatch/internal/models"
)

// Default rate card applied to new quotes. Weight is accepted on the request
// for future surcharges but does not enter the core formula.
const (
	DefaultBaseFee     = 50.0
	DefaultPerMileRate = 2.0
	DefaultFuelPct     = 0.10
)

// CalculatePrice converts a distance into a price breakdown:
// subtotal = baseFee + perMileRate*distanceMi, fuel = subtotal*fuelPct,
// total = round2(subtotal + fuel). Inputs are pre-validated positive
// numbers; the function is deterministic and has no error conditions.
func CalculatePrice(baseFee, perMileRate, fuelPct, distanceMi float64) models.Pricing {
	subtotal := baseFee + perMileRate*distanceMi
	fuel := subtotal * fuelPct
	return models.Pricing{
		BaseFee:     baseFee,
		PerMileRate: perMileRate,
		FuelPct:     fuelPct,
		DistanceMi:  distanceMi,
		Subtotal:    subtotal,
		Fuel:        fuel,
		Total:       round2(subtotal + fuel),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
