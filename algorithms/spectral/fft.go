package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides forward and inverse Fourier transforms over real and
// complex buffers. All transform work is delegated to mjibson/go-dsp,
// which handles arbitrary (including non-power-of-2) lengths.
type FFT struct{}

// NewFFT creates a new FFT calculator.
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of a real signal. The
// output has the same length as the input; bins above n/2 hold the
// conjugate-symmetric mirror.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeInverse computes the inverse transform of a complex spectrum.
func (f *FFT) ComputeInverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.IFFT(x)
}

// ComputeInverseReal computes the inverse transform and discards the
// imaginary parts. For conjugate-symmetric spectra the imaginary parts
// are numerical noise and the result is the original real signal.
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))
	for i, val := range result {
		realResult[i] = real(val)
	}
	return realResult
}
