// Package config defines the analysis and per-speaker settings for
// feature extraction, with YAML loaders for the on-disk layout used by
// training recipes.
package config

import (
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig holds corpus-wide extraction parameters. SampleRate is
// asserted against every input file rather than resampled.
type AnalysisConfig struct {
	SampleRate  int      `json:"fs" yaml:"fs"`
	FFTLength   int      `json:"fftl" yaml:"fftl"`
	HopSize     int      `json:"hop_size" yaml:"hop_size"`
	ShiftMS     float64  `json:"shiftms" yaml:"shiftms"`
	McepDim     int      `json:"mcep_dim" yaml:"mcep_dim"`
	McepAlpha   float64  `json:"mcep_alpha" yaml:"mcep_alpha"`
	MlfbDim     int      `json:"mlfb_dim" yaml:"mlfb_dim"`
	FMin        float64  `json:"fmin" yaml:"fmin"`
	FMax        float64  `json:"fmax" yaml:"fmax"`
	WindowTypes []string `json:"window_types" yaml:"window_types"`
}

// DefaultAnalysisConfig returns the 22.05 kHz configuration used by the
// standard recipes: 1024-point analysis, 128-sample hop, 80 mel bands,
// and a 34th-order mel-cepstrum.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		SampleRate:  22050,
		FFTLength:   1024,
		HopSize:     128,
		ShiftMS:     5.804988662131519,
		McepDim:     34,
		McepAlpha:   0.455,
		MlfbDim:     80,
		FMin:        0,
		FMax:        0,
		WindowTypes: []string{"hann"},
	}
}

// Validate fills derivable fields and reports the first invalid
// parameter. HopSize and ShiftMS can each be derived from the other;
// at least one must be set.
func (c *AnalysisConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("fs must be positive: %d", c.SampleRate)
	}
	if c.FFTLength <= 0 || c.FFTLength%2 != 0 {
		return fmt.Errorf("fftl must be positive and even: %d", c.FFTLength)
	}

	if c.HopSize <= 0 && c.ShiftMS <= 0 {
		return fmt.Errorf("either hop_size or shiftms must be set")
	}
	if c.HopSize <= 0 {
		c.HopSize = int(math.Round(c.ShiftMS * float64(c.SampleRate) / 1000.0))
	}
	if c.ShiftMS <= 0 {
		c.ShiftMS = float64(c.HopSize) / float64(c.SampleRate) * 1000.0
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("hop_size resolves to %d", c.HopSize)
	}

	if c.McepDim < 1 {
		return fmt.Errorf("mcep_dim must be at least 1: %d", c.McepDim)
	}
	if c.MlfbDim < 1 {
		return fmt.Errorf("mlfb_dim must be at least 1: %d", c.MlfbDim)
	}
	if c.FMin < 0 {
		return fmt.Errorf("fmin must be non-negative: %g", c.FMin)
	}
	if c.FMax > 0 && c.FMax <= c.FMin {
		return fmt.Errorf("fmax %g does not exceed fmin %g", c.FMax, c.FMin)
	}
	if c.FMax > float64(c.SampleRate)/2.0 {
		return fmt.Errorf("fmax %g exceeds the Nyquist frequency", c.FMax)
	}

	if len(c.WindowTypes) == 0 {
		return fmt.Errorf("window_types must not be empty")
	}
	if !slices.Contains(c.WindowTypes, "hann") {
		return fmt.Errorf("window_types must include hann")
	}

	// mcep_alpha 0 means "derive from the sample rate" downstream.
	if c.McepAlpha <= -1 || c.McepAlpha >= 1 {
		return fmt.Errorf("mcep_alpha must lie in (-1, 1): %g", c.McepAlpha)
	}

	return nil
}

// SpeakerConfig holds the per-speaker pitch search range and the power
// threshold separating speech frames from silence.
type SpeakerConfig struct {
	MinF0         float64 `json:"minf0" yaml:"minf0"`
	MaxF0         float64 `json:"maxf0" yaml:"maxf0"`
	NpowThreshold float64 `json:"npow" yaml:"npow"`
}

// DefaultSpeakerConfig returns a wide pitch range suitable as a
// starting point before per-speaker tuning.
func DefaultSpeakerConfig() *SpeakerConfig {
	return &SpeakerConfig{
		MinF0:         70,
		MaxF0:         340,
		NpowThreshold: -20,
	}
}

// Validate reports the first invalid parameter.
func (s *SpeakerConfig) Validate() error {
	if s.MinF0 <= 0 {
		return fmt.Errorf("minf0 must be positive: %g", s.MinF0)
	}
	if s.MaxF0 <= s.MinF0 {
		return fmt.Errorf("f0 range is empty: [%g, %g]", s.MinF0, s.MaxF0)
	}
	return nil
}

// analysisFile allows configs either at the top level or nested under a
// "feature" block as recipe files lay them out.
type analysisFile struct {
	Feature *AnalysisConfig `yaml:"feature"`
}

// LoadAnalysisConfig reads and validates an analysis config from YAML.
// Fields omitted in the file keep their defaults.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var nested analysisFile
	if err := yaml.Unmarshal(raw, &nested); err == nil && nested.Feature != nil {
		conf := mergeAnalysisDefaults(nested.Feature)
		if err := conf.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
		return conf, nil
	}

	var flat AnalysisConfig
	if err := yaml.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	conf := mergeAnalysisDefaults(&flat)
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return conf, nil
}

// mergeAnalysisDefaults backfills zero-valued fields from the defaults.
func mergeAnalysisDefaults(in *AnalysisConfig) *AnalysisConfig {
	conf := DefaultAnalysisConfig()
	if in.SampleRate > 0 {
		conf.SampleRate = in.SampleRate
	}
	if in.FFTLength > 0 {
		conf.FFTLength = in.FFTLength
	}
	if in.HopSize > 0 || in.ShiftMS > 0 {
		conf.HopSize = in.HopSize
		conf.ShiftMS = in.ShiftMS
	} else {
		// Keep the default hop but recompute the shift at the actual
		// sample rate.
		conf.ShiftMS = 0
	}
	if in.McepDim > 0 {
		conf.McepDim = in.McepDim
	}
	if in.McepAlpha != 0 {
		conf.McepAlpha = in.McepAlpha
	}
	if in.MlfbDim > 0 {
		conf.MlfbDim = in.MlfbDim
	}
	if in.FMin > 0 {
		conf.FMin = in.FMin
	}
	if in.FMax > 0 {
		conf.FMax = in.FMax
	}
	if len(in.WindowTypes) > 0 {
		conf.WindowTypes = in.WindowTypes
	}
	return conf
}

// LoadSpeakerConfigs reads a YAML file mapping speaker names to their
// settings. Fields a speaker omits fall back to the defaults.
func LoadSpeakerConfigs(path string) (map[string]*SpeakerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read speaker config: %w", err)
	}

	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse speaker config %s: %w", path, err)
	}

	speakers := make(map[string]*SpeakerConfig, len(nodes))
	for name, node := range nodes {
		conf := DefaultSpeakerConfig()
		if err := node.Decode(conf); err != nil {
			return nil, fmt.Errorf("failed to parse speaker %q in %s: %w", name, path, err)
		}
		if err := conf.Validate(); err != nil {
			return nil, fmt.Errorf("invalid speaker %q in %s: %w", name, path, err)
		}
		speakers[name] = conf
	}

	return speakers, nil
}
