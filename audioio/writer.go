package audioio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWav writes mono samples as 16-bit PCM. Samples outside [-1, 1]
// are clipped rather than wrapped.
func WriteWav(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, v := range samples {
		v = math.Max(-1.0, math.Min(1.0, v))
		data[i] = int(math.Round(v * 32767.0))
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		encoder.Close()
		f.Close()
		return fmt.Errorf("failed to write wav data to %s: %w", path, err)
	}

	if err := encoder.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize wav file %s: %w", path, err)
	}

	return f.Close()
}
