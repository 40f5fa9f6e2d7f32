package windowing

import (
	"math"
)

// generateITUG729 fills coefficients with the asymmetric analysis window
// from ITU-T G.729: a raised-Hamming segment over the first 5/6 of the
// window followed by a quarter-cosine taper over the last 1/6. The
// asymmetry concentrates the window's weight toward the most recent
// samples, which suits frame-synchronous LPC-style analysis.
//
// With L = len(coefficients) and s = L/6 (integer division):
//
//	w[i]     = 0.54 - 0.46*cos(2π(i + s - L/6) / (5L/3 - 1))   for i in [0, L-s)
//	w[L-s+i] = cos(2πi / (2L/3 - 1))                           for i in [0, s)
//
// The divisions inside the cosines are real-valued, so the segments meet
// without renormalization and the cosine taper starts at exactly 1.
// Callers must ensure L >= 6; Build enforces it.
func generateITUG729(coefficients []float64) {
	L := len(coefficients)
	s := L / 6

	hammingDen := 5.0*float64(L)/3.0 - 1.0
	for i := 0; i < L-s; i++ {
		x := float64(i+s) - float64(L)/6.0
		coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*x/hammingDen)
	}

	cosineDen := 2.0*float64(L)/3.0 - 1.0
	for i := 0; i < s; i++ {
		coefficients[L-s+i] = math.Cos(2 * math.Pi * float64(i) / cosineDen)
	}
}
