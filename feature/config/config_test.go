package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultAnalysisConfigValid(t *testing.T) {
	conf := DefaultAnalysisConfig()
	require.NoError(t, conf.Validate())

	assert.Equal(t, 22050, conf.SampleRate)
	assert.Equal(t, 1024, conf.FFTLength)
	assert.Equal(t, 128, conf.HopSize)
	assert.Equal(t, 34, conf.McepDim)
	assert.Equal(t, 80, conf.MlfbDim)
	assert.Equal(t, []string{"hann"}, conf.WindowTypes)
}

func TestValidateDerivesHopFromShift(t *testing.T) {
	conf := DefaultAnalysisConfig()
	conf.SampleRate = 16000
	conf.HopSize = 0
	conf.ShiftMS = 5.0

	require.NoError(t, conf.Validate())
	assert.Equal(t, 80, conf.HopSize)
}

func TestValidateDerivesShiftFromHop(t *testing.T) {
	conf := DefaultAnalysisConfig()
	conf.SampleRate = 16000
	conf.HopSize = 80
	conf.ShiftMS = 0

	require.NoError(t, conf.Validate())
	assert.InDelta(t, 5.0, conf.ShiftMS, 1e-9)
}

func TestValidateRejectsBadValues(t *testing.T) {
	conf := DefaultAnalysisConfig()
	conf.HopSize = 0
	conf.ShiftMS = 0
	assert.Error(t, conf.Validate(), "no frame shift at all")

	conf = DefaultAnalysisConfig()
	conf.FFTLength = 1023
	assert.Error(t, conf.Validate())

	conf = DefaultAnalysisConfig()
	conf.WindowTypes = []string{"hamming"}
	assert.Error(t, conf.Validate(), "hann window is mandatory")

	conf = DefaultAnalysisConfig()
	conf.FMax = 20000
	assert.Error(t, conf.Validate(), "fmax beyond Nyquist")

	conf = DefaultAnalysisConfig()
	conf.McepAlpha = 1.5
	assert.Error(t, conf.Validate())
}

func TestLoadAnalysisConfigNested(t *testing.T) {
	path := writeTemp(t, "conf.yml", `
feature:
  fs: 24000
  fftl: 1024
  hop_size: 120
  mlfb_dim: 80
  mcep_dim: 34
  mcep_alpha: 0.466
  window_types: ["hann", "itu-g"]
`)

	conf, err := LoadAnalysisConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 24000, conf.SampleRate)
	assert.Equal(t, 120, conf.HopSize)
	assert.InDelta(t, 5.0, conf.ShiftMS, 1e-9)
	assert.InDelta(t, 0.466, conf.McepAlpha, 1e-12)
	assert.Equal(t, []string{"hann", "itu-g"}, conf.WindowTypes)
}

func TestLoadAnalysisConfigFlat(t *testing.T) {
	path := writeTemp(t, "flat.yml", `
fs: 16000
fftl: 1024
hop_size: 80
`)

	conf, err := LoadAnalysisConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 16000, conf.SampleRate)
	assert.Equal(t, 80, conf.HopSize)
	// Omitted fields keep their defaults.
	assert.Equal(t, 80, conf.MlfbDim)
	assert.Equal(t, []string{"hann"}, conf.WindowTypes)
}

func TestLoadAnalysisConfigInvalid(t *testing.T) {
	_, err := LoadAnalysisConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := writeTemp(t, "bad.yml", "feature:\n  fs: -1\n")
	_, err = LoadAnalysisConfig(path)
	assert.Error(t, err)
}

func TestSpeakerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultSpeakerConfig().Validate())

	conf := DefaultSpeakerConfig()
	conf.MinF0 = 0
	assert.Error(t, conf.Validate())

	conf = DefaultSpeakerConfig()
	conf.MaxF0 = conf.MinF0
	assert.Error(t, conf.Validate())
}

func TestLoadSpeakerConfigs(t *testing.T) {
	path := writeTemp(t, "spkr.yml", `
SF1:
  minf0: 120
  maxf0: 340
  npow: -25
TM2:
  minf0: 80
  maxf0: 250
`)

	speakers, err := LoadSpeakerConfigs(path)
	require.NoError(t, err)
	require.Len(t, speakers, 2)

	sf1 := speakers["SF1"]
	require.NotNil(t, sf1)
	assert.InDelta(t, 120.0, sf1.MinF0, 1e-12)
	assert.InDelta(t, -25.0, sf1.NpowThreshold, 1e-12)

	// TM2 omits npow and inherits the default threshold.
	tm2 := speakers["TM2"]
	require.NotNil(t, tm2)
	assert.InDelta(t, 250.0, tm2.MaxF0, 1e-12)
	assert.InDelta(t, DefaultSpeakerConfig().NpowThreshold, tm2.NpowThreshold, 1e-12)
}

func TestLoadSpeakerConfigsRejectsBadRange(t *testing.T) {
	path := writeTemp(t, "bad_spkr.yml", "SF1:\n  minf0: 300\n  maxf0: 100\n")
	_, err := LoadSpeakerConfigs(path)
	assert.Error(t, err)
}
