package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oytunturk/crank/algorithms/windowing"
)

func hannWindow(t *testing.T, size int) *windowing.Window {
	t.Helper()
	win, err := windowing.Build(windowing.WindowHann, size)
	require.NoError(t, err)
	return win
}

func TestSTFTCenteredFrameCount(t *testing.T) {
	signal := make([]float64, 1024)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * float64(i) / 64)
	}

	result, err := NewSTFT().ComputeWithWindow(signal, 256, 128, 8000, hannWindow(t, 256))
	require.NoError(t, err)

	// Centered analysis: one frame per hop plus one.
	assert.Equal(t, 1+len(signal)/128, result.TimeFrames)
	assert.Equal(t, 129, result.FreqBins)
	assert.Len(t, result.Magnitude, result.TimeFrames)
	assert.Len(t, result.Magnitude[0], result.FreqBins)
	assert.InDelta(t, 8000.0/256.0, result.FreqResolution, 1e-12)
}

func TestSTFTSinePeakBin(t *testing.T) {
	const fs = 8000
	signal := make([]float64, 2048)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / fs)
	}

	result, err := NewSTFT().ComputeWithWindow(signal, 256, 64, fs, hannWindow(t, 256))
	require.NoError(t, err)

	// 1000 Hz lands exactly on bin 32 at fs=8000, N=256.
	mid := result.Magnitude[result.TimeFrames/2]
	peak := 0
	for k, v := range mid {
		if v > mid[peak] {
			peak = k
		}
	}
	assert.Equal(t, 32, peak)
	assert.Greater(t, mid[peak], 50.0)
}

func TestSTFTInvalidInput(t *testing.T) {
	stft := NewSTFT()

	_, err := stft.ComputeWithWindow(nil, 256, 128, 8000, nil)
	assert.Error(t, err)

	_, err = stft.ComputeWithWindow([]float64{1, 2, 3}, 0, 128, 8000, nil)
	assert.Error(t, err)

	_, err = stft.ComputeWithWindow([]float64{1, 2, 3}, 256, 0, 8000, nil)
	assert.Error(t, err)
}

func TestSTFTInverseRoundTrip(t *testing.T) {
	signal := make([]float64, 1024)
	for i := range signal {
		n := float64(i)
		signal[i] = 0.6*math.Sin(2*math.Pi*220*n/8000) + 0.3*math.Sin(2*math.Pi*1750*n/8000+0.7)
	}

	stft := NewSTFT()
	win := hannWindow(t, 256)

	forward, err := stft.ComputeWithWindow(signal, 256, 64, 8000, win)
	require.NoError(t, err)

	restored, err := stft.Inverse(forward.Complex, 256, 64, win, len(signal))
	require.NoError(t, err)
	require.Len(t, restored, len(signal))

	for i := range signal {
		assert.InDelta(t, signal[i], restored[i], 1e-8, "sample %d", i)
	}
}

func TestSTFTInverseNaturalLength(t *testing.T) {
	signal := make([]float64, 1024)
	for i := range signal {
		signal[i] = math.Cos(2 * math.Pi * float64(i) / 100)
	}

	stft := NewSTFT()
	win := hannWindow(t, 256)

	forward, err := stft.ComputeWithWindow(signal, 256, 64, 8000, win)
	require.NoError(t, err)

	restored, err := stft.Inverse(forward.Complex, 256, 64, win, 0)
	require.NoError(t, err)
	assert.Len(t, restored, (forward.TimeFrames-1)*64)
}

func TestSTFTInverseValidatesFrames(t *testing.T) {
	stft := NewSTFT()

	_, err := stft.Inverse(nil, 256, 64, nil, 0)
	assert.Error(t, err)

	bad := [][]complex128{make([]complex128, 100)}
	_, err = stft.Inverse(bad, 256, 64, nil, 0)
	assert.Error(t, err, "bin count must match windowSize/2+1")

	_, err = stft.Inverse([][]complex128{make([]complex128, 129)}, 255, 64, nil, 0)
	assert.Error(t, err, "odd window sizes are not invertible here")
}

func TestReflectIndex(t *testing.T) {
	// Mirror without repeating the edge sample.
	assert.Equal(t, 1, reflectIndex(-1, 5))
	assert.Equal(t, 2, reflectIndex(-2, 5))
	assert.Equal(t, 0, reflectIndex(0, 5))
	assert.Equal(t, 4, reflectIndex(4, 5))
	assert.Equal(t, 3, reflectIndex(5, 5))
	assert.Equal(t, 2, reflectIndex(6, 5))
	assert.Equal(t, 0, reflectIndex(100, 1))
}
