package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"
)

// STFT provides Short-Time Fourier Transform analysis with centered,
// reflect-padded frames, plus the inverse transform for waveform
// reconstruction.
type STFT struct {
	fft *FFT
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Magnitude      [][]float64    `json:"magnitude"`       // Time x Frequency magnitude matrix
	Phase          [][]float64    `json:"phase"`           // Time x Frequency phase matrix
	Complex        [][]complex128 `json:"-"`               // Raw complex spectrogram (not serialized)
	TimeFrames     int            `json:"time_frames"`     // Number of time frames
	FreqBins       int            `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int            `json:"sample_rate"`     // Sample rate
	WindowSize     int            `json:"window_size"`     // FFT window size
	HopSize        int            `json:"hop_size"`        // Hop size between frames
	FreqResolution float64        `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64        `json:"time_resolution"` // Time resolution (seconds/frame)
}

// Window interface for windowing functions
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// ComputeWithWindow computes a centered STFT with the given window.
//
// The signal is reflect-padded by windowSize/2 on both ends before
// framing, so frame t is centered on sample t*hopSize and the frame
// count is 1 + len(signal)/hopSize for an even window size. Frames are
// processed by a worker pool; each worker owns its output rows so the
// result is deterministic.
func (s *STFT) ComputeWithWindow(signal []float64, windowSize int, hopSize int, sampleRate int, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	// Center the frames by mirroring the signal around its ends.
	pad := windowSize / 2
	padded := make([]float64, len(signal)+2*pad)
	for i := range padded {
		padded[i] = signal[reflectIndex(i-pad, len(signal))]
	}

	numFrames := (len(padded)-windowSize)/hopSize + 1
	if numFrames <= 0 {
		return nil, fmt.Errorf("signal too short for given window size and hop size")
	}

	// Positive frequencies only
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	phase := make([][]float64, numFrames)
	complexSpectrum := make([][]complex128, numFrames)

	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
		phase[i] = make([]float64, freqBins)
		complexSpectrum[i] = make([]complex128, freqBins)
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)

	type frameJob struct {
		frameIdx int
		startIdx int
		endIdx   int
	}

	jobs := make(chan frameJob, numFrames)

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for job := range jobs {
				if job.endIdx > len(padded) {
					continue
				}

				copy(frameBuffer, padded[job.startIdx:job.endIdx])

				if window != nil {
					if err := window.ApplyInPlace(frameBuffer); err != nil {
						continue
					}
				}

				fftResult := s.fft.Compute(frameBuffer)

				for i := range freqBins {
					complexSpectrum[job.frameIdx][i] = fftResult[i]
					magnitude[job.frameIdx][i] = cmplx.Abs(fftResult[i])
					phase[job.frameIdx][i] = cmplx.Phase(fftResult[i])
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for frameIdx := range numFrames {
			startIdx := frameIdx * hopSize
			jobs <- frameJob{
				frameIdx: frameIdx,
				startIdx: startIdx,
				endIdx:   startIdx + windowSize,
			}
		}
	}()

	wg.Wait()

	result := &STFTResult{
		Magnitude:      magnitude,
		Phase:          phase,
		Complex:        complexSpectrum,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}

	return result, nil
}

// Inverse reconstructs a time-domain signal from a complex spectrogram
// of positive-frequency bins, undoing a centered STFT with the same
// window and hop. Frames are windowed, overlap-added, and normalized by
// the accumulated squared window envelope; the windowSize/2 padding
// introduced by the forward transform is trimmed off.
//
// length is the number of samples to return. Pass length <= 0 to use
// the natural reconstruction length (numFrames-1)*hopSize.
func (s *STFT) Inverse(complexSpec [][]complex128, windowSize, hopSize int, window Window, length int) ([]float64, error) {
	if len(complexSpec) == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}

	if windowSize <= 0 || windowSize%2 != 0 {
		return nil, fmt.Errorf("window size must be positive and even: %d", windowSize)
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	freqBins := windowSize/2 + 1
	for t, frame := range complexSpec {
		if len(frame) != freqBins {
			return nil, fmt.Errorf("frame %d has %d bins, expected %d", t, len(frame), freqBins)
		}
	}

	// Squared window envelope for overlap-add normalization.
	windowSq := make([]float64, windowSize)
	for i := range windowSq {
		windowSq[i] = 1.0
	}
	if window != nil {
		if err := window.ApplyInPlace(windowSq); err != nil {
			return nil, err
		}
		if err := window.ApplyInPlace(windowSq); err != nil {
			return nil, err
		}
	}

	numFrames := len(complexSpec)
	total := windowSize + (numFrames-1)*hopSize
	signal := make([]float64, total)
	envelope := make([]float64, total)

	full := make([]complex128, windowSize)
	for t, frame := range complexSpec {
		copy(full[:freqBins], frame)
		for k := freqBins; k < windowSize; k++ {
			full[k] = cmplx.Conj(frame[windowSize-k])
		}

		samples := s.fft.ComputeInverseReal(full)
		if window != nil {
			if err := window.ApplyInPlace(samples); err != nil {
				return nil, err
			}
		}

		offset := t * hopSize
		for i, v := range samples {
			signal[offset+i] += v
			envelope[offset+i] += windowSq[i]
		}
	}

	const tiny = 1e-11
	for i := range signal {
		if envelope[i] > tiny {
			signal[i] /= envelope[i]
		}
	}

	pad := windowSize / 2
	if length <= 0 {
		length = (numFrames - 1) * hopSize
	}
	if pad+length > total {
		length = total - pad
	}

	out := make([]float64, length)
	copy(out, signal[pad:pad+length])
	return out, nil
}

// reflectIndex folds an out-of-range index back into [0, n) by
// mirroring around the boundaries without repeating the edge samples.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = ((i % period) + period) % period
	if i >= n {
		i = period - i
	}
	return i
}

// getOptimalWorkerCount determines the optimal number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
