package spectral

import (
	"fmt"
	"math/cmplx"
)

// DefaultGriffinLimIterations balances reconstruction quality against
// runtime for diagnostic resynthesis.
const DefaultGriffinLimIterations = 32

// GriffinLim reconstructs a time-domain waveform from a magnitude
// spectrogram by iterative phase estimation (Griffin & Lim, 1984).
// Phases start at zero rather than random values so reconstruction is
// deterministic.
type GriffinLim struct {
	stft       *STFT
	iterations int
}

// NewGriffinLim creates a reconstructor running the given number of
// iterations. Values <= 0 select DefaultGriffinLimIterations.
func NewGriffinLim(iterations int) *GriffinLim {
	if iterations <= 0 {
		iterations = DefaultGriffinLimIterations
	}
	return &GriffinLim{
		stft:       NewSTFT(),
		iterations: iterations,
	}
}

// Reconstruct estimates a waveform whose centered STFT magnitude
// matches the given frame-major spectrogram (fftSize/2+1 bins per
// frame). Each iteration replaces the phase of the current estimate's
// spectrum while keeping the target magnitude fixed. The output has the
// natural inverse-STFT length (numFrames-1)*hopSize.
func (gl *GriffinLim) Reconstruct(magnitude [][]float64, windowSize, hopSize, sampleRate int, window Window) ([]float64, error) {
	if len(magnitude) == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}

	freqBins := windowSize/2 + 1
	for t, frame := range magnitude {
		if len(frame) != freqBins {
			return nil, fmt.Errorf("frame %d has %d bins, expected %d", t, len(frame), freqBins)
		}
	}

	// Zero-phase initialization.
	spec := make([][]complex128, len(magnitude))
	for t, frame := range magnitude {
		spec[t] = make([]complex128, freqBins)
		for k, mag := range frame {
			spec[t][k] = complex(mag, 0)
		}
	}

	signal, err := gl.stft.Inverse(spec, windowSize, hopSize, window, 0)
	if err != nil {
		return nil, err
	}

	for range gl.iterations {
		estimate, err := gl.stft.ComputeWithWindow(signal, windowSize, hopSize, sampleRate, window)
		if err != nil {
			return nil, err
		}

		// Keep the target magnitude, adopt the estimated phase.
		frames := min(len(spec), estimate.TimeFrames)
		for t := 0; t < frames; t++ {
			for k := 0; k < freqBins; k++ {
				c := estimate.Complex[t][k]
				if r := cmplx.Abs(c); r > 0 {
					spec[t][k] = complex(magnitude[t][k], 0) * c / complex(r, 0)
				} else {
					spec[t][k] = complex(magnitude[t][k], 0)
				}
			}
		}

		signal, err = gl.stft.Inverse(spec, windowSize, hopSize, window, 0)
		if err != nil {
			return nil, err
		}
	}

	return signal, nil
}
