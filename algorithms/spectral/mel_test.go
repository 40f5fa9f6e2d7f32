package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHzToMelSlaneyBreakpoint(t *testing.T) {
	// Linear region: 200/3 mels per Hz.
	assert.InDelta(t, 7.5, HzToMel(500, MelScaleSlaney), 1e-10)
	assert.InDelta(t, 15.0, HzToMel(1000, MelScaleSlaney), 1e-10)

	// Log region grows slower than linear extrapolation.
	assert.Less(t, HzToMel(4000, MelScaleSlaney), 4000.0/(200.0/3.0))
}

func TestMelConversionRoundTrip(t *testing.T) {
	for _, scale := range []MelScaleType{MelScaleSlaney, MelScaleHTK} {
		for _, hz := range []float64{0, 80, 440, 999, 1000, 1001, 3500, 8000, 11025} {
			back := MelToHz(HzToMel(hz, scale), scale)
			assert.InDelta(t, hz, back, 1e-6, "scale=%s hz=%g", scale, hz)
		}
	}
}

func TestMelConversionMonotonic(t *testing.T) {
	for _, scale := range []MelScaleType{MelScaleSlaney, MelScaleHTK} {
		prev := -1.0
		for hz := 0.0; hz <= 11025; hz += 25 {
			mel := HzToMel(hz, scale)
			assert.Greater(t, mel, prev, "scale=%s hz=%g", scale, hz)
			prev = mel
		}
	}
}

func TestMelFilterBankShape(t *testing.T) {
	mb, err := NewMelFilterBank(80, 1024, 22050, 0, 0, MelScaleSlaney)
	require.NoError(t, err)

	filters := mb.Filters()
	require.Len(t, filters, 80)
	assert.Equal(t, 80, mb.NumFilters())
	assert.Equal(t, 513, mb.NumBins())

	for m, filter := range filters {
		require.Len(t, filter, 513)

		sum := 0.0
		for _, w := range filter {
			assert.GreaterOrEqual(t, w, 0.0)
			sum += w
		}
		assert.Positive(t, sum, "filter %d has no support", m)
	}
}

func TestMelFilterBankPeaksAscend(t *testing.T) {
	mb, err := NewMelFilterBank(40, 1024, 16000, 0, 0, MelScaleSlaney)
	require.NoError(t, err)

	prevPeak := -1
	for m, filter := range mb.Filters() {
		peak := 0
		for k, w := range filter {
			if w > filter[peak] {
				peak = k
			}
		}
		assert.GreaterOrEqual(t, peak, prevPeak, "filter %d center moved backwards", m)
		prevPeak = peak
	}
}

func TestMelFilterBankDefaultFMax(t *testing.T) {
	auto, err := NewMelFilterBank(20, 512, 16000, 0, 0, MelScaleSlaney)
	require.NoError(t, err)
	explicit, err := NewMelFilterBank(20, 512, 16000, 0, 8000, MelScaleSlaney)
	require.NoError(t, err)

	assert.Equal(t, explicit.Filters(), auto.Filters())
}

func TestMelFilterBankApplyFrames(t *testing.T) {
	mb, err := NewMelFilterBank(8, 64, 8000, 0, 0, MelScaleSlaney)
	require.NoError(t, err)

	ones := make([]float64, 33)
	for i := range ones {
		ones[i] = 1.0
	}

	single := mb.Apply(ones)
	frames := mb.ApplyFrames([][]float64{ones, ones})

	require.Len(t, frames, 2)
	assert.Equal(t, single, frames[0])
	assert.Equal(t, single, frames[1])

	// A flat spectrum projects to each filter's weight sum.
	for m, filter := range mb.Filters() {
		sum := 0.0
		for _, w := range filter {
			sum += w
		}
		assert.InDelta(t, sum, single[m], 1e-12)
	}
}

func TestMelFilterBankInvalid(t *testing.T) {
	_, err := NewMelFilterBank(0, 1024, 22050, 0, 0, MelScaleSlaney)
	assert.Error(t, err)

	_, err = NewMelFilterBank(80, 1024, 22050, 8000, 4000, MelScaleSlaney)
	assert.Error(t, err)

	_, err = NewMelFilterBank(80, 1024, 22050, -1, 0, MelScaleSlaney)
	assert.Error(t, err)

	_, err = NewMelFilterBank(80, 1024, 22050, 0, 0, "bark")
	assert.Error(t, err)
}

func TestMelPseudoinverseIsRightInverse(t *testing.T) {
	mb, err := NewMelFilterBank(8, 64, 8000, 0, 0, MelScaleSlaney)
	require.NoError(t, err)

	pinv, err := mb.pseudoinverse()
	require.NoError(t, err)
	require.Len(t, pinv, 33)

	// The filter matrix has full row rank, so A * pinv(A) = I.
	filters := mb.Filters()
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			sum := 0.0
			for k := 0; k < 33; k++ {
				sum += filters[i][k] * pinv[k][j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, sum, 1e-8, "entry (%d,%d)", i, j)
		}
	}
}

func TestInvertLogStaysPositive(t *testing.T) {
	mb, err := NewMelFilterBank(8, 64, 8000, 0, 0, MelScaleSlaney)
	require.NoError(t, err)

	// Very negative log energies push the raw inversion to ~0.
	frame := make([]float64, 8)
	for i := range frame {
		frame[i] = -10
	}

	spec, err := mb.InvertLog([][]float64{frame})
	require.NoError(t, err)
	require.Len(t, spec, 1)
	require.Len(t, spec[0], 33)

	for _, v := range spec[0] {
		assert.Positive(t, v)
	}

	_, err = mb.InvertLog([][]float64{make([]float64, 5)})
	assert.Error(t, err, "band count mismatch")
}

func TestInvertLogRecoversSmoothSpectrum(t *testing.T) {
	mb, err := NewMelFilterBank(16, 128, 8000, 0, 0, MelScaleSlaney)
	require.NoError(t, err)

	// Project a smooth spectrum to mel, invert, and re-project: the mel
	// representation must survive the round trip. Flooring of negative
	// pseudoinverse ripples allows a small deviation.
	spectrum := make([]float64, 65)
	for k := range spectrum {
		spectrum[k] = 1.0 + math.Exp(-math.Pow(float64(k)-20, 2)/100.0)
	}

	mel := mb.Apply(spectrum)
	logMel := make([]float64, len(mel))
	for i, v := range mel {
		logMel[i] = math.Log10(math.Max(1e-10, v))
	}

	restored, err := mb.InvertLog([][]float64{logMel})
	require.NoError(t, err)

	remel := mb.Apply(restored[0])
	for i := range mel {
		assert.InDelta(t, mel[i], remel[i], 0.05*math.Abs(mel[i])+1e-9, "band %d", i)
	}
}
