package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rms(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestLowCutTapsSymmetric(t *testing.T) {
	lc, err := NewLowCut(16000, 70)
	require.NoError(t, err)

	taps := lc.Taps()
	require.Len(t, taps, DefaultLowCutTaps)

	for i := 0; i < len(taps)/2; i++ {
		assert.InDelta(t, taps[i], taps[len(taps)-1-i], 1e-12,
			"linear-phase FIR taps must be symmetric at index %d", i)
	}
}

func TestLowCutNyquistGain(t *testing.T) {
	lc, err := NewLowCut(16000, 70)
	require.NoError(t, err)

	taps := lc.Taps()
	center := float64(len(taps)-1) / 2.0

	gain := 0.0
	for n, tap := range taps {
		gain += tap * math.Cos(math.Pi*(float64(n)-center))
	}
	assert.InDelta(t, 1.0, gain, 1e-9)
}

func TestLowCutImpulseDelay(t *testing.T) {
	lc, err := NewLowCut(16000, 70)
	require.NoError(t, err)

	impulse := make([]float64, 512)
	impulse[0] = 1.0
	out := lc.ProcessBuffer(impulse)

	peak := 0
	for i, v := range out {
		if math.Abs(v) > math.Abs(out[peak]) {
			peak = i
		}
	}
	assert.Equal(t, (DefaultLowCutTaps-1)/2, peak,
		"impulse response should peak at the group delay")
}

func TestLowCutRejectsDC(t *testing.T) {
	lc, err := NewLowCut(16000, 70)
	require.NoError(t, err)

	input := make([]float64, 2048)
	for i := range input {
		input[i] = 1.0
	}
	out := lc.ProcessBuffer(input)

	// Steady state after the filter has filled.
	for _, v := range out[512:] {
		assert.Less(t, math.Abs(v), 0.35)
	}
}

func TestLowCutAttenuatesRumble(t *testing.T) {
	const fs = 16000
	lc, err := NewLowCut(fs, 70)
	require.NoError(t, err)

	// 10 Hz rumble, well below the cutoff.
	input := make([]float64, 8000)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * 10 * float64(i) / fs)
	}
	out := lc.ProcessBuffer(input)

	// Compare steady-state RMS over whole cycles.
	ratio := rms(out[1600:8000]) / rms(input[1600:8000])
	assert.Less(t, ratio, 0.35, "10 Hz should be attenuated")
}

func TestLowCutPreservesSpeechBand(t *testing.T) {
	const fs = 16000
	lc, err := NewLowCut(fs, 70)
	require.NoError(t, err)

	input := make([]float64, 4096)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / fs)
	}
	out := lc.ProcessBuffer(input)

	ratio := rms(out[512:]) / rms(input[512:])
	assert.InDelta(t, 1.0, ratio, 0.05, "1 kHz should pass unchanged")
}

func TestLowCutProcessBufferRepeatable(t *testing.T) {
	lc, err := NewLowCut(16000, 70)
	require.NoError(t, err)

	input := make([]float64, 1024)
	for i := range input {
		input[i] = math.Sin(2*math.Pi*220*float64(i)/16000) + 0.3*math.Sin(2*math.Pi*50*float64(i)/16000)
	}

	first := lc.ProcessBuffer(input)
	second := lc.ProcessBuffer(input)
	assert.Equal(t, first, second, "ProcessBuffer should reset state between calls")
}

func TestLowCutInvalidParams(t *testing.T) {
	_, err := NewLowCut(0, 70)
	assert.Error(t, err)

	_, err = NewLowCut(16000, 0)
	assert.Error(t, err)

	_, err = NewLowCut(16000, 8000)
	assert.Error(t, err)

	_, err = NewLowCutWithTaps(16000, 70, 256)
	assert.Error(t, err, "even tap counts have no symmetric center")

	_, err = NewLowCutWithTaps(16000, 70, 1)
	assert.Error(t, err)
}
