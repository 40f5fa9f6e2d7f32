// Package vocoder provides source-filter speech analysis and synthesis
// around the WORLD vocoder, plus the mel-cepstrum conversions used to
// compress spectral envelopes.
package vocoder

import (
	"fmt"
)

// Config holds the analysis parameters shared by analyzer and
// synthesizer. FFTLength must match the analyzer's native resolution
// for the sample rate (1024 up to 32 kHz, 2048 above).
type Config struct {
	SampleRate int     `json:"sample_rate"`
	FFTLength  int     `json:"fft_length"`
	ShiftMS    float64 `json:"shift_ms"`
	F0Floor    float64 `json:"f0_floor"`
	F0Ceil     float64 `json:"f0_ceil"`
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", c.SampleRate)
	}
	if c.FFTLength <= 0 || c.FFTLength%2 != 0 {
		return fmt.Errorf("fft length must be positive and even: %d", c.FFTLength)
	}
	if c.ShiftMS <= 0 {
		return fmt.Errorf("frame shift must be positive: %g", c.ShiftMS)
	}
	if c.F0Floor <= 0 || c.F0Ceil <= c.F0Floor {
		return fmt.Errorf("f0 search range is empty: [%g, %g]", c.F0Floor, c.F0Ceil)
	}
	return nil
}

// Bins returns the number of spectral bins per frame, FFTLength/2+1.
func (c Config) Bins() int {
	return c.FFTLength/2 + 1
}

// Analysis holds frame-synchronous vocoder parameters for one
// utterance. Spectrogram rows are power spectra and Aperiodicity rows
// are band aperiodicity ratios in [0, 1]; both have Bins() columns and
// one row per F0 frame.
type Analysis struct {
	F0           []float64
	Spectrogram  [][]float64
	Aperiodicity [][]float64
}

// Frames returns the number of analysis frames.
func (a *Analysis) Frames() int {
	return len(a.F0)
}

// Validate checks that the three parameter streams agree in shape.
func (a *Analysis) Validate(bins int) error {
	if len(a.Spectrogram) != len(a.F0) || len(a.Aperiodicity) != len(a.F0) {
		return fmt.Errorf("frame counts disagree: f0=%d spectrogram=%d aperiodicity=%d",
			len(a.F0), len(a.Spectrogram), len(a.Aperiodicity))
	}
	for t := range a.Spectrogram {
		if len(a.Spectrogram[t]) != bins || len(a.Aperiodicity[t]) != bins {
			return fmt.Errorf("frame %d has %d/%d bins, expected %d",
				t, len(a.Spectrogram[t]), len(a.Aperiodicity[t]), bins)
		}
	}
	return nil
}

// Analyzer extracts vocoder parameters from a waveform.
type Analyzer interface {
	Analyze(x []float64) (*Analysis, error)
}

// Synthesizer renders a waveform from vocoder parameters.
type Synthesizer interface {
	Synthesize(f0 []float64, spectrogram, aperiodicity [][]float64) ([]float64, error)
}
