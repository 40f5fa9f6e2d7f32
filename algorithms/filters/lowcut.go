package filters

import (
	"fmt"
	"math"
)

// DefaultLowCutFrequency is the cutoff used to suppress DC and rumble
// before pitch and envelope analysis.
const DefaultLowCutFrequency = 70.0

// DefaultLowCutTaps is the default FIR length. Odd so the filter has an
// integer group delay of (taps-1)/2 samples.
const DefaultLowCutTaps = 255

// LowCut implements a linear-phase FIR high-pass filter that removes
// energy below a cutoff frequency.
//
// The design is a windowed-sinc high-pass (Hamming window): a spectral
// delta minus a low-pass prototype, scaled for unity gain at Nyquist.
// This matches the classic firwin(numtaps, cutoff, pass_zero=False)
// design used throughout speech preprocessing.
//
// References:
//   - Oppenheim & Schafer, "Discrete-Time Signal Processing", Chapter 7
//     (window method of FIR design)
type LowCut struct {
	taps       []float64
	cutoffFreq float64
	sampleRate int

	// Streaming state
	delay []float64
	pos   int
}

// NewLowCut creates a low-cut filter with the default tap count.
func NewLowCut(sampleRate int, cutoffFreq float64) (*LowCut, error) {
	return NewLowCutWithTaps(sampleRate, cutoffFreq, DefaultLowCutTaps)
}

// NewLowCutWithTaps creates a low-cut filter with an explicit FIR length.
// numTaps must be odd and at least 3; the cutoff must lie strictly
// between 0 and Nyquist.
func NewLowCutWithTaps(sampleRate int, cutoffFreq float64, numTaps int) (*LowCut, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	nyquist := float64(sampleRate) / 2.0
	if cutoffFreq <= 0 || cutoffFreq >= nyquist {
		return nil, fmt.Errorf("cutoff frequency must be in (0, %g): %g", nyquist, cutoffFreq)
	}

	if numTaps < 3 || numTaps%2 == 0 {
		return nil, fmt.Errorf("tap count must be odd and >= 3: %d", numTaps)
	}

	lc := &LowCut{
		taps:       designHighPass(numTaps, cutoffFreq/nyquist),
		cutoffFreq: cutoffFreq,
		sampleRate: sampleRate,
		delay:      make([]float64, numTaps),
	}

	return lc, nil
}

// designHighPass builds windowed-sinc high-pass taps for a cutoff
// normalized to Nyquist (0 < cutoff < 1).
func designHighPass(numTaps int, cutoff float64) []float64 {
	center := float64(numTaps-1) / 2.0
	taps := make([]float64, numTaps)

	for n := range taps {
		m := float64(n) - center
		// Delta at the center minus the low-pass prototype, under a
		// symmetric Hamming window.
		window := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(numTaps-1))
		taps[n] = (sinc(m) - cutoff*sinc(cutoff*m)) * window
	}

	// Scale for unity gain at Nyquist.
	gain := 0.0
	for n := range taps {
		m := float64(n) - center
		gain += taps[n] * math.Cos(math.Pi*m)
	}
	for n := range taps {
		taps[n] /= gain
	}

	return taps
}

// sinc is the normalized sinc function sin(pi*x)/(pi*x).
func sinc(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// Process applies the filter to a single sample, maintaining streaming
// state across calls.
func (lc *LowCut) Process(input float64) float64 {
	lc.delay[lc.pos] = input

	output := 0.0
	idx := lc.pos
	for _, tap := range lc.taps {
		output += tap * lc.delay[idx]
		idx--
		if idx < 0 {
			idx = len(lc.delay) - 1
		}
	}

	lc.pos++
	if lc.pos == len(lc.delay) {
		lc.pos = 0
	}

	return output
}

// ProcessBuffer applies the filter causally to an entire buffer with
// zero initial state, so the output carries the filter's (taps-1)/2
// sample group delay exactly like a direct-form FIR.
func (lc *LowCut) ProcessBuffer(input []float64) []float64 {
	lc.Reset()

	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = lc.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state.
// Call this when processing discontinuous audio segments.
func (lc *LowCut) Reset() {
	for i := range lc.delay {
		lc.delay[i] = 0
	}
	lc.pos = 0
}

// Taps returns a copy of the filter coefficients.
func (lc *LowCut) Taps() []float64 {
	taps := make([]float64, len(lc.taps))
	copy(taps, lc.taps)
	return taps
}

// NumTaps returns the FIR length.
func (lc *LowCut) NumTaps() int {
	return len(lc.taps)
}

// CutoffFrequency returns the configured cutoff in Hz.
func (lc *LowCut) CutoffFrequency() float64 {
	return lc.cutoffFreq
}
