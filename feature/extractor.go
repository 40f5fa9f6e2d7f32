package feature

import (
	"fmt"
	"math"

	"github.com/oytunturk/crank/algorithms/contour"
	"github.com/oytunturk/crank/algorithms/filters"
	"github.com/oytunturk/crank/algorithms/spectral"
	"github.com/oytunturk/crank/algorithms/windowing"
	"github.com/oytunturk/crank/audioio"
	"github.com/oytunturk/crank/feature/config"
	"github.com/oytunturk/crank/logging"
	"github.com/oytunturk/crank/vocoder"
)

// Options adjusts what Process computes beyond the core analysis.
type Options struct {
	// OutDir receives feature containers and diagnostic audio.
	OutDir string

	// Synthesis enables analysis-synthesis and Griffin-Lim diagnostics.
	Synthesis bool

	// F0Only stops after the pitch contours, for f0 statistics runs.
	F0Only bool

	// Analyzer overrides the default WORLD analyzer, mainly for tests.
	Analyzer vocoder.Analyzer

	// Synthesizer overrides the default WORLD synthesizer.
	Synthesizer vocoder.Synthesizer

	// Logger overrides the global logger.
	Logger logging.Logger
}

// Extractor turns waveform files into stored feature sets.
//
// All shared state is immutable after construction, so a single
// extractor may process different files from several goroutines
// concurrently.
type Extractor struct {
	conf  *config.AnalysisConfig
	spkr  *config.SpeakerConfig
	opts  Options
	alpha float64

	windows *WindowTable
	store   *Store
	melBank *spectral.MelFilterBank
	stft    *spectral.STFT

	analyzer    vocoder.Analyzer
	synthesizer vocoder.Synthesizer
	logger      logging.Logger
}

// NewExtractor validates the configuration and prepares the shared
// analysis state: window table, mel filter bank, output store, and the
// vocoder frontends.
func NewExtractor(conf *config.AnalysisConfig, spkr *config.SpeakerConfig, opts Options) (*Extractor, error) {
	if conf == nil || spkr == nil {
		return nil, fmt.Errorf("analysis and speaker configs are required")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := spkr.Validate(); err != nil {
		return nil, err
	}

	alpha := conf.McepAlpha
	if alpha == 0 {
		alpha = vocoder.AlphaForSampleRate(conf.SampleRate)
	}

	windows, err := NewWindowTable(conf.WindowTypes, conf.FFTLength)
	if err != nil {
		return nil, err
	}

	melBank, err := spectral.NewMelFilterBank(conf.MlfbDim, conf.FFTLength, conf.SampleRate, conf.FMin, conf.FMax, spectral.MelScaleSlaney)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(opts.OutDir)
	if err != nil {
		return nil, err
	}

	vconf := vocoder.Config{
		SampleRate: conf.SampleRate,
		FFTLength:  conf.FFTLength,
		ShiftMS:    conf.ShiftMS,
		F0Floor:    spkr.MinF0,
		F0Ceil:     spkr.MaxF0,
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer, err = vocoder.NewWorldAnalyzer(vconf)
		if err != nil {
			return nil, err
		}
	}

	synthesizer := opts.Synthesizer
	if synthesizer == nil && opts.Synthesis {
		synthesizer, err = vocoder.NewWorldSynthesizer(vconf)
		if err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "feature_extractor"})

	return &Extractor{
		conf:        conf,
		spkr:        spkr,
		opts:        opts,
		alpha:       alpha,
		windows:     windows,
		store:       store,
		melBank:     melBank,
		stft:        spectral.NewSTFT(),
		analyzer:    analyzer,
		synthesizer: synthesizer,
		logger:      logger,
	}, nil
}

// Store exposes the container store Process writes into.
func (e *Extractor) Store() *Store {
	return e.store
}

// Process extracts every configured feature from one WAV file and
// saves the container.
//
// The file's sample rate must match the configuration. If a container
// for the file's label already exists the extraction is skipped and
// (nil, nil) is returned. Diagnostic resynthesis failures are logged
// but never fail the extraction.
func (e *Extractor) Process(wavPath string) (*FeatureSet, error) {
	data, err := audioio.ReadWav(wavPath)
	if err != nil {
		return nil, err
	}
	if data.SampleRate != e.conf.SampleRate {
		return nil, fmt.Errorf("sample rate mismatch: %s is %d Hz, config expects %d Hz",
			wavPath, data.SampleRate, e.conf.SampleRate)
	}

	if e.store.Exists(data.Label) {
		e.logger.Info("features already exist", logging.Fields{
			"label": data.Label,
			"path":  e.store.Path(data.Label),
		})
		return nil, nil
	}

	e.logger.Info("extracting features", logging.Fields{
		"label": data.Label,
		"path":  wavPath,
	})

	set := &FeatureSet{Label: data.Label}

	if err := e.analyzeWorld(data, set); err != nil {
		return nil, err
	}

	if !e.opts.F0Only {
		if e.opts.Synthesis && e.conf.FFTLength != 256 {
			e.resynthesize(set)
		}

		if err := e.analyzeFilterbank(data, set); err != nil {
			return nil, err
		}

		if e.opts.Synthesis {
			e.reconstructFilterbank(set)
		}
	}

	if err := e.store.Save(set); err != nil {
		return nil, err
	}

	return set, nil
}

// analyzeWorld runs the vocoder analysis on the low-cut waveform and
// derives the pitch contours, mel-cepstrum, frame power, and coded
// aperiodicity.
func (e *Extractor) analyzeWorld(data *audioio.AudioData, set *FeatureSet) error {
	lowCut, err := filters.NewLowCut(e.conf.SampleRate, filters.DefaultLowCutFrequency)
	if err != nil {
		return err
	}
	filtered := lowCut.ProcessBuffer(data.Samples)

	analysis, err := e.analyzer.Analyze(filtered)
	if err != nil {
		return fmt.Errorf("vocoder analysis failed for %s: %w", set.Label, err)
	}

	set.F0 = analysis.F0
	set.Spectrogram = analysis.Spectrogram
	set.Aperiodicity = analysis.Aperiodicity

	set.UV, set.ContinuousF0 = contour.Interpolate(set.F0)
	set.LogF0 = make([]float64, len(set.F0))
	set.LogContinuousF0 = make([]float64, len(set.F0))
	for t, v := range set.F0 {
		set.LogF0[t] = math.Log(v + eps)
		set.LogContinuousF0[t] = math.Log(set.ContinuousF0[t])
	}

	if e.opts.F0Only {
		return nil
	}

	mcep, err := vocoder.SpectrumToMcep(set.Spectrogram, e.conf.McepDim, e.alpha)
	if err != nil {
		return fmt.Errorf("mel-cepstrum extraction failed for %s: %w", set.Label, err)
	}
	set.Mcep = mcep

	npow, err := vocoder.NormalizedFramePower(set.Spectrogram)
	if err != nil {
		return fmt.Errorf("frame power extraction failed for %s: %w", set.Label, err)
	}
	set.Npow = npow

	// NOTE: 256-point analysis sometimes breaks coded aperiodicity
	// extraction, and rates at or below 16 kHz leave no usable band.
	if e.conf.FFTLength != 256 && e.conf.SampleRate > 16000 {
		if err := e.codeAperiodicity(set); err != nil {
			return err
		}
	}

	return nil
}

// codeAperiodicity compresses the aperiodicity into per-band streams.
// D4C pins unvoiced frames at the band ceiling, so every frame tied
// with a band's maximum is zeroed before the gap-filling pass.
func (e *Extractor) codeAperiodicity(set *FeatureSet) error {
	coded, err := vocoder.CodeAperiodicity(set.Aperiodicity, e.conf.SampleRate)
	if err != nil {
		return fmt.Errorf("coded aperiodicity failed for %s: %w", set.Label, err)
	}

	frames := len(coded)
	bands := 0
	if frames > 0 {
		bands = len(coded[0])
	}

	capUV := make([][]float64, frames)
	ccap := make([][]float64, frames)
	for t := range capUV {
		capUV[t] = make([]float64, bands)
		ccap[t] = make([]float64, bands)
	}

	column := make([]float64, frames)
	for d := 0; d < bands; d++ {
		maxVal := math.Inf(-1)
		for t := 0; t < frames; t++ {
			if coded[t][d] > maxVal {
				maxVal = coded[t][d]
			}
		}
		for t := 0; t < frames; t++ {
			if coded[t][d] == maxVal {
				coded[t][d] = 0.0
			}
			column[t] = coded[t][d]
		}

		mask, cont := contour.Interpolate(column)
		for t := 0; t < frames; t++ {
			capUV[t][d] = mask[t]
			ccap[t][d] = cont[t]
		}
	}

	set.Cap = &BandAperiodicity{Coded: coded, UV: capUV, Continuous: ccap}
	return nil
}

// analyzeFilterbank computes log mel filterbank energies from the raw
// waveform for every configured window, plus the energy contours under
// the hann window.
func (e *Extractor) analyzeFilterbank(data *audioio.AudioData, set *FeatureSet) error {
	for _, winType := range e.windows.Types() {
		win, ok := e.windows.Get(winType)
		if !ok {
			return fmt.Errorf("window %s missing from table", winType)
		}

		result, err := e.stft.ComputeWithWindow(data.Samples, e.conf.FFTLength, e.conf.HopSize, e.conf.SampleRate, win)
		if err != nil {
			return fmt.Errorf("stft failed for %s (%s window): %w", set.Label, winType, err)
		}

		mel := e.melBank.ApplyFrames(result.Magnitude)
		logMel := make([][]float64, len(mel))
		for t, row := range mel {
			logMel[t] = make([]float64, len(row))
			for m, v := range row {
				logMel[t][m] = math.Log10(math.Max(eps, v))
			}
		}

		if winType == string(windowing.WindowHann) {
			set.Mlfb = logMel
			if err := e.analyzeEnergy(result.Magnitude, set); err != nil {
				return err
			}
		} else {
			if set.MlfbAux == nil {
				set.MlfbAux = make(map[string][][]float64)
			}
			set.MlfbAux[winType] = logMel
		}
	}

	return nil
}

// analyzeEnergy derives the frame energy contour from hann-window
// magnitudes and gates it by the vocoder power threshold. Both framings
// advance by the same hop, so their counts may differ only by edge
// effects; anything beyond that is a configuration error.
func (e *Extractor) analyzeEnergy(magnitude [][]float64, set *FeatureSet) error {
	energy := make([]float64, len(magnitude))
	for t, frame := range magnitude {
		sum := 0.0
		for _, v := range frame {
			sum += v * v
		}
		sum = math.Min(math.Max(sum, eps), 1.0/eps)
		energy[t] = math.Log(math.Sqrt(sum))
	}
	set.Energy = energy

	skew := len(energy) - len(set.Npow)
	if skew < 0 {
		skew = -skew
	}
	if skew > 2 {
		return fmt.Errorf("frame alignment for %s is off by %d frames (stft=%d vocoder=%d)",
			set.Label, skew, len(energy), len(set.Npow))
	}

	energyUV := make([]float64, len(energy))
	for t := 0; t < len(energy) && t < len(set.Npow); t++ {
		if set.Npow[t] > e.spkr.NpowThreshold {
			energyUV[t] = 1.0
		}
	}
	set.EnergyUV = energyUV

	masked := make([]float64, len(energy))
	for t := range masked {
		masked[t] = energy[t] * energyUV[t]
	}
	_, set.ContinuousEnergy = contour.Interpolate(masked)

	return nil
}
