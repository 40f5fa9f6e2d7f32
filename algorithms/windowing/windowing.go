package windowing

import (
	"fmt"
)

// WindowType represents different window function types
type WindowType string

const (
	WindowHann     WindowType = "hann"
	WindowHamming  WindowType = "hamming"
	WindowBlackman WindowType = "blackman"
	WindowITUG729  WindowType = "itu-g"
)

// Window represents a window function with its coefficients
type Window struct {
	Type         WindowType `json:"type"`
	Size         int        `json:"size"`
	Coefficients []float64  `json:"coefficients"`
}

// Build generates a window of the given type and size. Unknown window types
// and sizes the type cannot support are configuration errors, reported at
// build time rather than mid-analysis.
func Build(windowType WindowType, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive: %d", size)
	}

	coefficients := make([]float64, size)

	switch windowType {
	case WindowHann:
		generateHann(coefficients, true)

	case WindowHamming:
		generateHamming(coefficients, true)

	case WindowBlackman:
		generateBlackman(coefficients, true)

	case WindowITUG729:
		if size < 6 {
			return nil, fmt.Errorf("itu-g window size must be at least 6: %d", size)
		}
		generateITUG729(coefficients)

	default:
		return nil, fmt.Errorf("unsupported window type: %s", windowType)
	}

	return &Window{
		Type:         windowType,
		Size:         size,
		Coefficients: coefficients,
	}, nil
}

// Apply applies the window to a signal (creates a new array)
func (w *Window) Apply(signal []float64) ([]float64, error) {
	if len(signal) != w.Size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.Size)
	}

	windowed := make([]float64, w.Size)
	for i := 0; i < w.Size; i++ {
		windowed[i] = signal[i] * w.Coefficients[i]
	}

	return windowed, nil
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.Size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.Size)
	}

	for i := 0; i < w.Size; i++ {
		signal[i] *= w.Coefficients[i]
	}

	return nil
}

// CoherentGain returns the mean of the coefficients, the amplitude
// correction factor for windowed spectra.
func (w *Window) CoherentGain() float64 {
	sum := 0.0
	for _, coeff := range w.Coefficients {
		sum += coeff
	}
	return sum / float64(w.Size)
}
