package windowing

import (
	"math"
)

// generateHann fills coefficients with a Hann window.
// Symmetric uses denominator N-1 (filter design / scipy convention),
// periodic uses N (spectral analysis convention).
func generateHann(coefficients []float64, symmetric bool) {
	N := len(coefficients)
	denominator := float64(N)
	if symmetric {
		denominator = float64(N - 1)
	}

	for i := range N {
		coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}
