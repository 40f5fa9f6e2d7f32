package vocoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		SampleRate: 22050,
		FFTLength:  1024,
		ShiftMS:    5.0,
		F0Floor:    70,
		F0Ceil:     340,
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	conf := validConfig()
	conf.SampleRate = 0
	assert.Error(t, conf.Validate())

	conf = validConfig()
	conf.FFTLength = 1023
	assert.Error(t, conf.Validate(), "odd fft lengths are rejected")

	conf = validConfig()
	conf.ShiftMS = 0
	assert.Error(t, conf.Validate())

	conf = validConfig()
	conf.F0Floor = 400
	assert.Error(t, conf.Validate(), "empty f0 search range")
}

func TestConfigBins(t *testing.T) {
	assert.Equal(t, 513, validConfig().Bins())
}

func TestAnalysisValidate(t *testing.T) {
	a := &Analysis{
		F0:           make([]float64, 3),
		Spectrogram:  [][]float64{make([]float64, 5), make([]float64, 5), make([]float64, 5)},
		Aperiodicity: [][]float64{make([]float64, 5), make([]float64, 5), make([]float64, 5)},
	}
	assert.NoError(t, a.Validate(5))
	assert.Equal(t, 3, a.Frames())

	assert.Error(t, a.Validate(9), "bin count mismatch")

	a.Aperiodicity = a.Aperiodicity[:2]
	assert.Error(t, a.Validate(5), "frame count mismatch")
}

func TestNewWorldAnalyzerRejectsBadConfig(t *testing.T) {
	conf := validConfig()
	conf.FFTLength = 0

	_, err := NewWorldAnalyzer(conf)
	assert.Error(t, err)

	_, err = NewWorldSynthesizer(conf)
	assert.Error(t, err)
}

func TestNewWorldAnalyzerAcceptsValidConfig(t *testing.T) {
	wa, err := NewWorldAnalyzer(validConfig())
	assert.NoError(t, err)
	assert.NotNil(t, wa)

	ws, err := NewWorldSynthesizer(validConfig())
	assert.NoError(t, err)
	assert.NotNil(t, ws)
}
