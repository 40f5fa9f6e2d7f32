// Package audioio reads and writes the mono WAV files the feature
// pipeline consumes and emits.
package audioio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"github.com/oytunturk/crank/logging"
)

// ErrInvalidWav marks files that exist but do not parse as RIFF/WAV.
var ErrInvalidWav = errors.New("not a valid wav file")

// AudioData represents a decoded waveform ready for analysis.
type AudioData struct {
	Samples    []float64     `json:"-"`           // Mono samples normalized to [-1, 1)
	SampleRate int           `json:"sample_rate"` // Samples per second
	Channels   int           `json:"channels"`    // Channel count before mixdown
	BitDepth   int           `json:"bit_depth"`   // Source PCM bit depth
	Label      string        `json:"label"`       // File stem used to key stored features
	Duration   time.Duration `json:"duration"`
}

// ReadWav decodes a WAV file into normalized float64 samples.
//
// Multi-channel files are mixed down to mono by averaging, matching how
// the rest of the pipeline treats every waveform as a single stream.
// The label is the file name without its extension.
func ReadWav(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn("failed to close wav file", logging.Fields{"path": path})
		}
	}()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWav, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav file %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %s has no channels", ErrInvalidWav, path)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	numFrames := len(buf.Data) / channels
	samples := make([]float64, numFrames)

	if channels == 1 {
		for i := 0; i < numFrames; i++ {
			samples[i] = float64(buf.Data[i]) / scale
		}
	} else {
		logging.Warn("mixing multi-channel audio down to mono", logging.Fields{
			"path":     path,
			"channels": channels,
		})
		for i := 0; i < numFrames; i++ {
			sum := 0.0
			for c := 0; c < channels; c++ {
				sum += float64(buf.Data[i*channels+c])
			}
			samples[i] = sum / float64(channels) / scale
		}
	}

	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s reports sample rate %d", ErrInvalidWav, path, sampleRate)
	}

	return &AudioData{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
		Label:      Label(path),
		Duration:   time.Duration(float64(time.Second) * float64(numFrames) / float64(sampleRate)),
	}, nil
}

// Label returns the file stem a waveform's features are stored under.
func Label(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
