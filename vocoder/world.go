package vocoder

import (
	"fmt"

	world "github.com/r9y9/go-world"
)

// WorldAnalyzer extracts F0, spectral envelope, and aperiodicity with
// the WORLD vocoder: Dio pitch estimation refined by StoneMask, then
// CheapTrick and D4C on the refined track.
//
// Reference:
//   - Morise, Yokomori, Ozawa: "WORLD: A Vocoder-Based High-Quality
//     Speech Synthesis System for Real-Time Applications" (2016)
type WorldAnalyzer struct {
	conf Config
}

// NewWorldAnalyzer validates the configuration and returns an analyzer.
// A fresh WORLD session is created per Analyze call, so one analyzer
// may be shared across goroutines.
func NewWorldAnalyzer(conf Config) (*WorldAnalyzer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &WorldAnalyzer{conf: conf}, nil
}

// Analyze runs the full WORLD analysis chain on a mono waveform at the
// configured sample rate.
func (wa *WorldAnalyzer) Analyze(x []float64) (*Analysis, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("empty waveform")
	}

	w := world.New(wa.conf.SampleRate, wa.conf.ShiftMS)

	opt := world.NewDioOption()
	opt.FramePeriod = wa.conf.ShiftMS
	opt.F0Floor = wa.conf.F0Floor
	opt.F0Ceil = wa.conf.F0Ceil

	timeAxis, f0 := w.Dio(x, opt)
	f0 = w.StoneMask(x, timeAxis, f0)

	spectrogram := w.CheapTrick(x, timeAxis, f0)
	aperiodicity := w.D4C(x, timeAxis, f0)

	analysis := &Analysis{
		F0:           f0,
		Spectrogram:  spectrogram,
		Aperiodicity: aperiodicity,
	}

	// CheapTrick picks its FFT size from the sample rate; reject
	// configurations that disagree with it instead of emitting
	// misshapen features.
	if err := analysis.Validate(wa.conf.Bins()); err != nil {
		return nil, fmt.Errorf("world analysis shape mismatch (fft length %d at %d Hz): %w",
			wa.conf.FFTLength, wa.conf.SampleRate, err)
	}

	return analysis, nil
}

// WorldSynthesizer renders waveforms from WORLD parameters.
type WorldSynthesizer struct {
	conf Config
}

// NewWorldSynthesizer validates the configuration and returns a
// synthesizer. Safe to share across goroutines.
func NewWorldSynthesizer(conf Config) (*WorldSynthesizer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &WorldSynthesizer{conf: conf}, nil
}

// Synthesize reconstructs a waveform from an F0 track, a power
// spectrogram, and band aperiodicity. The output length follows from
// the frame count and shift.
func (ws *WorldSynthesizer) Synthesize(f0 []float64, spectrogram, aperiodicity [][]float64) ([]float64, error) {
	analysis := &Analysis{F0: f0, Spectrogram: spectrogram, Aperiodicity: aperiodicity}
	if err := analysis.Validate(ws.conf.Bins()); err != nil {
		return nil, err
	}
	if len(f0) == 0 {
		return nil, fmt.Errorf("no frames to synthesize")
	}

	length := int(float64(len(f0)) * ws.conf.ShiftMS * float64(ws.conf.SampleRate) / 1000.0)

	w := world.New(ws.conf.SampleRate, ws.conf.ShiftMS)
	y := w.Synthesis(f0, spectrogram, aperiodicity, length)

	return y, nil
}
