package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MelScaleType selects the frequency warping used by a mel filter bank.
type MelScaleType string

const (
	// MelScaleSlaney is the Auditory Toolbox scale: linear below 1 kHz,
	// logarithmic above.
	MelScaleSlaney MelScaleType = "slaney"
	// MelScaleHTK is the HTK scale 2595*log10(1 + f/700).
	MelScaleHTK MelScaleType = "htk"
)

// spectrumFloor keeps reconstructed magnitudes strictly positive.
const spectrumFloor = 1e-10

// HzToMel converts a frequency in Hz to mels on the given scale.
func HzToMel(hz float64, scale MelScaleType) float64 {
	if scale == MelScaleHTK {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}

	// Slaney: 200/3 mels per Hz up to 1 kHz, log-spaced above.
	const fsp = 200.0 / 3.0
	const minLogHz = 1000.0
	const minLogMel = minLogHz / fsp
	logStep := math.Log(6.4) / 27.0

	if hz >= minLogHz {
		return minLogMel + math.Log(hz/minLogHz)/logStep
	}
	return hz / fsp
}

// MelToHz converts mels back to a frequency in Hz on the given scale.
func MelToHz(mel float64, scale MelScaleType) float64 {
	if scale == MelScaleHTK {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}

	const fsp = 200.0 / 3.0
	const minLogHz = 1000.0
	const minLogMel = minLogHz / fsp
	logStep := math.Log(6.4) / 27.0

	if mel >= minLogMel {
		return minLogHz * math.Exp(logStep*(mel-minLogMel))
	}
	return mel * fsp
}

// MelFilterBank maps linear-frequency spectra onto triangular mel-band
// filters. Filters are area-normalized (each triangle integrates to
// roughly the same energy), matching the common analysis convention for
// neural vocoder features.
type MelFilterBank struct {
	numFilters int
	fftSize    int
	sampleRate int
	fmin       float64
	fmax       float64
	scale      MelScaleType
	filters    [][]float64
}

// NewMelFilterBank builds a bank of numFilters triangular filters over
// fftSize/2+1 frequency bins.
//
// fmax <= 0 selects the Nyquist frequency. The scale argument picks the
// frequency warping; MelScaleSlaney is the usual choice for filterbank
// features.
func NewMelFilterBank(numFilters, fftSize, sampleRate int, fmin, fmax float64, scale MelScaleType) (*MelFilterBank, error) {
	if numFilters <= 0 {
		return nil, fmt.Errorf("filter count must be positive: %d", numFilters)
	}
	if fftSize <= 0 {
		return nil, fmt.Errorf("fft size must be positive: %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	nyquist := float64(sampleRate) / 2.0
	if fmax <= 0 {
		fmax = nyquist
	}
	if fmin < 0 {
		return nil, fmt.Errorf("minimum frequency must be non-negative: %g", fmin)
	}
	if fmin >= fmax {
		return nil, fmt.Errorf("frequency range is empty: [%g, %g]", fmin, fmax)
	}

	switch scale {
	case MelScaleSlaney, MelScaleHTK:
	case "":
		scale = MelScaleSlaney
	default:
		return nil, fmt.Errorf("unsupported mel scale: %s", scale)
	}

	mb := &MelFilterBank{
		numFilters: numFilters,
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fmin:       fmin,
		fmax:       fmax,
		scale:      scale,
	}
	mb.filters = mb.buildFilters()

	return mb, nil
}

func (mb *MelFilterBank) buildFilters() [][]float64 {
	bins := mb.fftSize/2 + 1

	// Band edges: numFilters+2 points equally spaced in mels.
	melMin := HzToMel(mb.fmin, mb.scale)
	melMax := HzToMel(mb.fmax, mb.scale)
	edges := make([]float64, mb.numFilters+2)
	for i := range edges {
		mel := melMin + (melMax-melMin)*float64(i)/float64(mb.numFilters+1)
		edges[i] = MelToHz(mel, mb.scale)
	}

	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(mb.sampleRate) / float64(mb.fftSize)
	}

	filters := make([][]float64, mb.numFilters)
	for m := range filters {
		filters[m] = make([]float64, bins)

		lower := edges[m]
		center := edges[m+1]
		upper := edges[m+2]

		// Normalize each triangle by its bandwidth.
		enorm := 2.0 / (upper - lower)

		for k, freq := range fftFreqs {
			rising := (freq - lower) / (center - lower)
			falling := (upper - freq) / (upper - center)

			weight := math.Min(rising, falling)
			if weight < 0 {
				weight = 0
			}
			filters[m][k] = weight * enorm
		}
	}

	return filters
}

// Apply projects a single spectrum frame (fftSize/2+1 bins) onto the
// mel bands.
func (mb *MelFilterBank) Apply(spectrum []float64) []float64 {
	out := make([]float64, mb.numFilters)
	for m, filter := range mb.filters {
		sum := 0.0
		for k := 0; k < len(filter) && k < len(spectrum); k++ {
			sum += filter[k] * spectrum[k]
		}
		out[m] = sum
	}
	return out
}

// ApplyFrames projects a frame-major spectrogram onto the mel bands.
func (mb *MelFilterBank) ApplyFrames(spectrogram [][]float64) [][]float64 {
	out := make([][]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		out[t] = mb.Apply(spectrum)
	}
	return out
}

// InvertLog approximates the linear magnitude spectrogram that produced
// a base-10 log mel spectrogram, using the Moore-Penrose pseudoinverse
// of the filter matrix. Outputs are floored at a small positive value.
func (mb *MelFilterBank) InvertLog(logMel [][]float64) ([][]float64, error) {
	for t, frame := range logMel {
		if len(frame) != mb.numFilters {
			return nil, fmt.Errorf("frame %d has %d bands, expected %d", t, len(frame), mb.numFilters)
		}
	}

	pinv, err := mb.pseudoinverse()
	if err != nil {
		return nil, err
	}

	bins := mb.fftSize/2 + 1
	out := make([][]float64, len(logMel))
	for t, frame := range logMel {
		out[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			sum := 0.0
			for m := 0; m < mb.numFilters; m++ {
				sum += pinv[k][m] * math.Pow(10.0, frame[m])
			}
			out[t][k] = math.Max(spectrumFloor, sum)
		}
	}

	return out, nil
}

// pseudoinverse computes the bins x filters Moore-Penrose pseudoinverse
// of the filter matrix via thin SVD.
func (mb *MelFilterBank) pseudoinverse() ([][]float64, error) {
	bins := mb.fftSize/2 + 1

	flat := make([]float64, mb.numFilters*bins)
	for m, filter := range mb.filters {
		copy(flat[m*bins:(m+1)*bins], filter)
	}
	a := mat.NewDense(mb.numFilters, bins, flat)

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, fmt.Errorf("svd factorization of mel filter matrix failed")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	// Singular values below this are treated as zero.
	tol := float64(max(mb.numFilters, bins)) * values[0] * 2.22e-16

	pinv := make([][]float64, bins)
	for k := 0; k < bins; k++ {
		pinv[k] = make([]float64, mb.numFilters)
		for m := 0; m < mb.numFilters; m++ {
			sum := 0.0
			for i, s := range values {
				if s <= tol {
					continue
				}
				sum += v.At(k, i) * u.At(m, i) / s
			}
			pinv[k][m] = sum
		}
	}

	return pinv, nil
}

// Filters returns a deep copy of the filter matrix
// (numFilters rows x fftSize/2+1 columns).
func (mb *MelFilterBank) Filters() [][]float64 {
	out := make([][]float64, len(mb.filters))
	for m, filter := range mb.filters {
		out[m] = make([]float64, len(filter))
		copy(out[m], filter)
	}
	return out
}

// NumFilters returns the number of mel bands.
func (mb *MelFilterBank) NumFilters() int {
	return mb.numFilters
}

// NumBins returns the number of linear-frequency bins per frame.
func (mb *MelFilterBank) NumBins() int {
	return mb.fftSize/2 + 1
}
