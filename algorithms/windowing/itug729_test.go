package windowing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestITUG729Shape(t *testing.T) {
	for _, L := range []int{6, 12, 64, 100, 240, 1024} {
		s := L / 6

		w, err := Build(WindowITUG729, L)
		require.NoError(t, err, "L=%d", L)
		require.Len(t, w.Coefficients, L)

		for i, c := range w.Coefficients {
			require.False(t, math.IsNaN(c) || math.IsInf(c, 0),
				"L=%d: coefficient %d not finite", L, i)
			assert.GreaterOrEqual(t, c, -1.0, "L=%d i=%d", L, i)
			assert.LessOrEqual(t, c, 1.0, "L=%d i=%d", L, i)
		}

		// The cosine taper starts at cos(0), exactly one.
		assert.Equal(t, 1.0, w.Coefficients[L-s], "L=%d", L)
	}
}

func TestITUG729TaperValues(t *testing.T) {
	// L=12: s=2, taper denominator 2*12/3-1 = 7.
	w, err := Build(WindowITUG729, 12)
	require.NoError(t, err)

	assert.Equal(t, 1.0, w.Coefficients[10])
	// cos(2*pi/7)
	assert.InDelta(t, 0.6234898018587336, w.Coefficients[11], 1e-12)
}

func TestITUG729HammingHead(t *testing.T) {
	// When L is divisible by 6 the head starts on the Hamming minimum.
	w, err := Build(WindowITUG729, 240)
	require.NoError(t, err)

	assert.InDelta(t, 0.08, w.Coefficients[0], 1e-12)

	// The head rises toward the junction with the taper.
	s := 240 / 6
	assert.Greater(t, w.Coefficients[240-s-1], 0.9)
}

func TestITUG729TooShort(t *testing.T) {
	for _, L := range []int{1, 2, 3, 4, 5} {
		_, err := Build(WindowITUG729, L)
		require.Error(t, err, "L=%d", L)
	}
}
