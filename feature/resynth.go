package feature

import (
	"path/filepath"

	"github.com/oytunturk/crank/algorithms/spectral"
	"github.com/oytunturk/crank/audioio"
	"github.com/oytunturk/crank/logging"
	"github.com/oytunturk/crank/vocoder"
)

// resynthesize runs analysis-synthesis through the vocoder to audit
// the mel-cepstrum round trip. Failures are logged and skipped so a
// degenerate utterance cannot abort a batch.
func (e *Extractor) resynthesize(set *FeatureSet) {
	spectrogram, err := vocoder.McepToSpectrum(set.Mcep, e.alpha, e.conf.FFTLength)
	if err != nil {
		e.logger.Error(err, "mel-cepstrum inversion failed", logging.Fields{"label": set.Label})
		return
	}

	wave, err := e.synthesizer.Synthesize(set.F0, spectrogram, set.Aperiodicity)
	if err != nil {
		e.logger.Error(err, "analysis-synthesis failed", logging.Fields{"label": set.Label})
		return
	}

	clipped := make([]float64, len(wave))
	for i, v := range wave {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		clipped[i] = v
	}
	set.AnalysisSynthesis = clipped

	out := filepath.Join(e.store.Dir(), set.Label+"_anasyn.wav")
	if err := audioio.WriteWav(out, wave, e.conf.SampleRate); err != nil {
		e.logger.Error(err, "writing analysis-synthesis wav failed", logging.Fields{
			"label": set.Label,
			"path":  out,
		})
	}
}

// reconstructFilterbank inverts each log mel filterbank back to audio
// with Griffin-Lim and writes the waveform plus a heatmap next to the
// container. The phase estimate always runs under the hann window, no
// matter which window produced the filterbank.
func (e *Extractor) reconstructFilterbank(set *FeatureSet) {
	gl := spectral.NewGriffinLim(spectral.DefaultGriffinLimIterations)

	grids := map[string][][]float64{"mlfb": set.Mlfb}
	for winType, logMel := range set.MlfbAux {
		grids["mlfb_"+winType] = logMel
	}

	for name, logMel := range grids {
		if len(logMel) == 0 {
			continue
		}
		base := filepath.Join(e.store.Dir(), set.Label+"_"+name+"_gl")

		linear, err := e.melBank.InvertLog(logMel)
		if err != nil {
			e.logger.Error(err, "mel filterbank inversion failed", logging.Fields{
				"label":   set.Label,
				"feature": name,
			})
			continue
		}

		wave, err := gl.Reconstruct(linear, e.conf.FFTLength, e.conf.HopSize, e.conf.SampleRate, e.windows.Hann())
		if err != nil {
			e.logger.Error(err, "griffin-lim reconstruction failed", logging.Fields{
				"label":   set.Label,
				"feature": name,
			})
			continue
		}

		if err := audioio.WriteWav(base+".wav", wave, e.conf.SampleRate); err != nil {
			e.logger.Error(err, "writing griffin-lim wav failed", logging.Fields{
				"label": set.Label,
				"path":  base + ".wav",
			})
		}

		if err := saveMelPlot(logMel, set.Label+" "+name, base+".png"); err != nil {
			e.logger.Error(err, "writing filterbank heatmap failed", logging.Fields{
				"label": set.Label,
				"path":  base + ".png",
			})
		}
	}
}
