package vocoder

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/oytunturk/crank/algorithms/spectral"
)

// freqt warps a cepstrum onto the mel-like frequency axis defined by
// the all-pass constant alpha, returning order+1 coefficients. This is
// the standard SPTK frequency transform recursion.
func freqt(c []float64, order int, alpha float64) []float64 {
	beta := 1.0 - alpha*alpha

	g := make([]float64, order+1)
	d := make([]float64, order+1)

	for i := len(c) - 1; i >= 0; i-- {
		d[0] = c[i] + alpha*g[0]
		if order >= 1 {
			d[1] = beta*g[0] + alpha*g[1]
		}
		for j := 2; j <= order; j++ {
			d[j] = g[j-1] + alpha*(g[j]-d[j-1])
		}
		g, d = d, g
	}

	return g
}

// SpectrumToMcep converts a power spectrogram (frame-major, fftl/2+1
// bins) to mel-cepstrum coefficients of the given order.
//
// Each frame's log spectrum is carried to the real cepstrum by an
// inverse FFT and then frequency-warped. Order counts coefficients
// beyond the zeroth, so each output row has order+1 values.
func SpectrumToMcep(spectrogram [][]float64, order int, alpha float64) ([][]float64, error) {
	if order < 0 {
		return nil, fmt.Errorf("mel-cepstrum order must be non-negative: %d", order)
	}

	fft := spectral.NewFFT()
	mcep := make([][]float64, len(spectrogram))

	for t, spectrum := range spectrogram {
		bins := len(spectrum)
		if bins < 2 {
			return nil, fmt.Errorf("frame %d has %d bins", t, bins)
		}
		fftLength := (bins - 1) * 2

		// Log spectrum, mirrored to the full conjugate-symmetric grid.
		full := make([]complex128, fftLength)
		for k := 0; k < bins; k++ {
			logPower := math.Log(spectrum[k])
			full[k] = complex(logPower, 0)
			if k > 0 && k < bins-1 {
				full[fftLength-k] = complex(logPower, 0)
			}
		}

		ceps := fft.ComputeInverseReal(full)
		ceps[0] /= 2.0

		mcep[t] = freqt(ceps, order, alpha)
	}

	return mcep, nil
}

// McepToSpectrum expands mel-cepstrum rows back into power spectra with
// fftLength/2+1 bins, inverting SpectrumToMcep up to the smoothing the
// cepstral truncation applied.
func McepToSpectrum(mcep [][]float64, alpha float64, fftLength int) ([][]float64, error) {
	if fftLength <= 0 || fftLength%2 != 0 {
		return nil, fmt.Errorf("fft length must be positive and even: %d", fftLength)
	}

	fft := spectral.NewFFT()
	bins := fftLength/2 + 1
	spectrogram := make([][]float64, len(mcep))

	for t, mc := range mcep {
		if len(mc) == 0 {
			return nil, fmt.Errorf("frame %d has no coefficients", t)
		}

		ceps := freqt(mc, fftLength/2, -alpha)
		ceps[0] *= 2.0

		sym := make([]float64, fftLength)
		copy(sym, ceps)
		for k := 1; k < fftLength/2; k++ {
			sym[fftLength-k] = ceps[k]
		}

		spectrum := fft.Compute(sym)
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = math.Exp(real(spectrum[k]))
		}
		spectrogram[t] = row
	}

	return spectrogram, nil
}

// NormalizedFramePower reduces a power spectrogram to one dB value per
// frame, normalized so the utterance's mean power sits at 0 dB. Frames
// quieter than average come out negative.
func NormalizedFramePower(spectrogram [][]float64) ([]float64, error) {
	if len(spectrogram) == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}

	powers := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		bins := len(spectrum)
		if bins < 2 {
			return nil, fmt.Errorf("frame %d has %d bins", t, bins)
		}
		fftLength := (bins - 1) * 2

		// DC and Nyquist once, interior bins twice.
		power := spectrum[0] + spectrum[bins-1]
		for k := 1; k < bins-1; k++ {
			power += 2.0 * spectrum[k]
		}
		powers[t] = power / float64(fftLength)
	}

	mean := stat.Mean(powers, nil)

	npow := make([]float64, len(powers))
	for t, p := range powers {
		npow[t] = 10.0 * math.Log10(p/mean)
	}

	return npow, nil
}

// NumAperiodicityBands returns how many coded aperiodicity bands a
// sample rate supports: one per 3 kHz above the first band, capped at
// 15 kHz.
func NumAperiodicityBands(sampleRate int) int {
	const bandWidth = 3000.0
	const upperLimit = 15000.0
	return int(math.Min(upperLimit, float64(sampleRate)/2.0-bandWidth) / bandWidth)
}

// CodeAperiodicity compresses full-resolution aperiodicity rows into a
// few dB values per frame, sampling 20*log10(ap) at 3 kHz intervals by
// linear interpolation on the FFT bin grid.
func CodeAperiodicity(aperiodicity [][]float64, sampleRate int) ([][]float64, error) {
	bands := NumAperiodicityBands(sampleRate)
	if bands < 1 {
		return nil, fmt.Errorf("sample rate %d Hz is too low for coded aperiodicity", sampleRate)
	}

	coded := make([][]float64, len(aperiodicity))
	logAp := []float64{}

	for t, row := range aperiodicity {
		bins := len(row)
		if bins < 2 {
			return nil, fmt.Errorf("frame %d has %d bins", t, bins)
		}
		fftLength := (bins - 1) * 2
		binWidth := float64(sampleRate) / float64(fftLength)

		if len(logAp) != bins {
			logAp = make([]float64, bins)
		}
		for k, ap := range row {
			logAp[k] = 20.0 * math.Log10(ap)
		}

		coded[t] = make([]float64, bands)
		for b := 0; b < bands; b++ {
			freq := 3000.0 * float64(b+1)
			pos := freq / binWidth
			k0 := int(pos)
			if k0 >= bins-1 {
				coded[t][b] = logAp[bins-1]
				continue
			}
			frac := pos - float64(k0)
			coded[t][b] = logAp[k0]*(1.0-frac) + logAp[k0+1]*frac
		}
	}

	return coded, nil
}

// AlphaForSampleRate returns the conventional all-pass constant that
// makes the warped frequency axis approximate the mel scale at a given
// sample rate.
func AlphaForSampleRate(sampleRate int) float64 {
	switch {
	case sampleRate <= 8000:
		return 0.312
	case sampleRate <= 11025:
		return 0.357
	case sampleRate <= 16000:
		return 0.42
	case sampleRate <= 22050:
		return 0.455
	case sampleRate <= 24000:
		return 0.466
	case sampleRate <= 32000:
		return 0.504
	case sampleRate <= 44100:
		return 0.544
	default:
		return 0.554
	}
}
