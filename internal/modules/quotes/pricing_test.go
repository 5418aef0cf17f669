package quotes

import (
	"math"
	"testing"
)

func TestCalculatePrice(t *testing.T) {
	tests := []struct {
		name        string
		baseFee     float64
		perMileRate float64
		fuelPct     float64
		distanceMi  float64
		wantTotal   float64
	}{
		{"ten miles standard rates", 50, 2, 0.1, 10, 77.00},
		{"zero surcharge", 50, 2, 0, 10, 70.00},
		{"short hop", 10, 1.5, 0.05, 2, 13.65},
		{"fractional rounding", 25, 1.33, 0.07, 7.5, 37.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CalculatePrice(tt.baseFee, tt.perMileRate, tt.fuelPct, tt.distanceMi)

			if p.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", p.Total, tt.wantTotal)
			}

			wantSubtotal := tt.baseFee + tt.perMileRate*tt.distanceMi
			if math.Abs(p.Subtotal-wantSubtotal) > 1e-9 {
				t.Errorf("Subtotal = %v, want %v", p.Subtotal, wantSubtotal)
			}
			if math.Abs(p.Fuel-wantSubtotal*tt.fuelPct) > 1e-9 {
				t.Errorf("Fuel = %v, want %v", p.Fuel, wantSubtotal*tt.fuelPct)
			}

			wantTotal := math.Round(wantSubtotal*(1+tt.fuelPct)*100) / 100
			if p.Total != wantTotal {
				t.Errorf("Total = %v, want round2(subtotal*(1+fuelPct)) = %v", p.Total, wantTotal)
			}
		})
	}
}

func TestCalculatePricePositive(t *testing.T) {
	for _, mi := range []float64{0.1, 1, 10, 250, 3000} {
		p := CalculatePrice(DefaultBaseFee, DefaultPerMileRate, DefaultFuelPct, mi)
		if p.Total <= 0 {
			t.Errorf("Total for %v miles = %v, want > 0", mi, p.Total)
		}
	}
}
