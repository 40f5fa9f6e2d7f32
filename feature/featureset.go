// Package feature extracts the per-utterance acoustic features used
// for voice conversion training: vocoder parameters, mel-cepstrum,
// pitch contours, log mel filterbank energies, and their continuous
// counterparts, persisted in a keyed container per utterance.
package feature

import (
	"fmt"
	"sort"
)

// eps floors values before logarithms and clipping so every stored
// feature stays finite.
const eps = 1e-10

// BandAperiodicity groups the coded aperiodicity stream with its
// voicing mask and gap-filled counterpart. All three are frame-major
// with one column per 3 kHz band.
type BandAperiodicity struct {
	Coded      [][]float64 // per-band dB values, loudest tied frames zeroed
	UV         [][]float64 // 1 where the band survived zeroing
	Continuous [][]float64 // zero gaps filled by interpolation
}

// FeatureSet holds every feature extracted from one utterance. Slices
// are frame-major; optional members stay nil when their extraction
// stage was disabled.
type FeatureSet struct {
	Label string

	// WORLD analysis
	F0           []float64
	Spectrogram  [][]float64
	Aperiodicity [][]float64

	// Pitch contours
	UV              []float64
	ContinuousF0    []float64
	LogF0           []float64
	LogContinuousF0 []float64

	// Envelope compression
	Mcep [][]float64
	Npow []float64
	Cap  *BandAperiodicity

	// Filterbank analysis
	Mlfb             [][]float64
	MlfbAux          map[string][][]float64 // keyed by non-hann window type
	Energy           []float64
	EnergyUV         []float64
	ContinuousEnergy []float64

	// Diagnostic resynthesis
	AnalysisSynthesis []float64
}

// record is one named feature in its container form. Cols is zero for
// vectors; matrices are flattened row-major.
type record struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	Data []float64 `msgpack:"data"`
}

func vectorRecord(v []float64) *record {
	data := make([]float64, len(v))
	copy(data, v)
	return &record{Rows: len(v), Cols: 0, Data: data}
}

func matrixRecord(m [][]float64) (*record, error) {
	if len(m) == 0 {
		return &record{}, nil
	}
	cols := len(m[0])
	data := make([]float64, 0, len(m)*cols)
	for t, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", t, len(row), cols)
		}
		data = append(data, row...)
	}
	return &record{Rows: len(m), Cols: cols, Data: data}, nil
}

func (r *record) vector() []float64 {
	data := make([]float64, len(r.Data))
	copy(data, r.Data)
	return data
}

func (r *record) matrix() ([][]float64, error) {
	if r.Cols <= 0 {
		return nil, fmt.Errorf("record is not a matrix (cols=%d)", r.Cols)
	}
	if len(r.Data) != r.Rows*r.Cols {
		return nil, fmt.Errorf("record has %d values for %dx%d shape", len(r.Data), r.Rows, r.Cols)
	}
	m := make([][]float64, r.Rows)
	for t := range m {
		m[t] = make([]float64, r.Cols)
		copy(m[t], r.Data[t*r.Cols:(t+1)*r.Cols])
	}
	return m, nil
}

// records maps the populated members to their container names.
func (fs *FeatureSet) records() (map[string]*record, error) {
	out := make(map[string]*record)

	addVec := func(name string, v []float64) {
		if len(v) > 0 {
			out[name] = vectorRecord(v)
		}
	}
	addMat := func(name string, m [][]float64) error {
		if len(m) == 0 {
			return nil
		}
		rec, err := matrixRecord(m)
		if err != nil {
			return fmt.Errorf("feature %s: %w", name, err)
		}
		out[name] = rec
		return nil
	}

	addVec("f0", fs.F0)
	addVec("uv", fs.UV)
	addVec("cf0", fs.ContinuousF0)
	addVec("lf0", fs.LogF0)
	addVec("lcf0", fs.LogContinuousF0)
	addVec("npow", fs.Npow)
	addVec("energy", fs.Energy)
	addVec("energy_uv", fs.EnergyUV)
	addVec("cenergy", fs.ContinuousEnergy)
	addVec("x_anasyn", fs.AnalysisSynthesis)

	if err := addMat("spc", fs.Spectrogram); err != nil {
		return nil, err
	}
	if err := addMat("ap", fs.Aperiodicity); err != nil {
		return nil, err
	}
	if err := addMat("mcep", fs.Mcep); err != nil {
		return nil, err
	}
	if err := addMat("mlfb", fs.Mlfb); err != nil {
		return nil, err
	}

	if fs.Cap != nil {
		if err := addMat("cap", fs.Cap.Coded); err != nil {
			return nil, err
		}
		if err := addMat("cap_uv", fs.Cap.UV); err != nil {
			return nil, err
		}
		if err := addMat("ccap", fs.Cap.Continuous); err != nil {
			return nil, err
		}
	}

	for winType, mlfb := range fs.MlfbAux {
		if err := addMat("mlfb_"+winType, mlfb); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Keys returns the sorted container names this set would be stored
// under.
func (fs *FeatureSet) Keys() []string {
	recs, err := fs.records()
	if err != nil {
		// Shape errors surface on Save; for listing purposes report
		// whatever is mappable.
		recs = map[string]*record{}
	}
	keys := make([]string, 0, len(recs))
	for name := range recs {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// fromRecords rebuilds a typed set from container records.
func fromRecords(label string, recs map[string]*record) (*FeatureSet, error) {
	fs := &FeatureSet{Label: label}

	for name, rec := range recs {
		var err error
		switch name {
		case "f0":
			fs.F0 = rec.vector()
		case "uv":
			fs.UV = rec.vector()
		case "cf0":
			fs.ContinuousF0 = rec.vector()
		case "lf0":
			fs.LogF0 = rec.vector()
		case "lcf0":
			fs.LogContinuousF0 = rec.vector()
		case "npow":
			fs.Npow = rec.vector()
		case "energy":
			fs.Energy = rec.vector()
		case "energy_uv":
			fs.EnergyUV = rec.vector()
		case "cenergy":
			fs.ContinuousEnergy = rec.vector()
		case "x_anasyn":
			fs.AnalysisSynthesis = rec.vector()
		case "spc":
			fs.Spectrogram, err = rec.matrix()
		case "ap":
			fs.Aperiodicity, err = rec.matrix()
		case "mcep":
			fs.Mcep, err = rec.matrix()
		case "mlfb":
			fs.Mlfb, err = rec.matrix()
		case "cap", "cap_uv", "ccap":
			if fs.Cap == nil {
				fs.Cap = &BandAperiodicity{}
			}
			var m [][]float64
			m, err = rec.matrix()
			switch name {
			case "cap":
				fs.Cap.Coded = m
			case "cap_uv":
				fs.Cap.UV = m
			case "ccap":
				fs.Cap.Continuous = m
			}
		default:
			if winType, ok := auxWindowType(name); ok {
				var m [][]float64
				m, err = rec.matrix()
				if err == nil {
					if fs.MlfbAux == nil {
						fs.MlfbAux = make(map[string][][]float64)
					}
					fs.MlfbAux[winType] = m
				}
			} else {
				return nil, fmt.Errorf("unknown feature %q", name)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", name, err)
		}
	}

	return fs, nil
}

// auxWindowType recognizes "mlfb_<window>" names.
func auxWindowType(name string) (string, bool) {
	const prefix = "mlfb_"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):], true
	}
	return "", false
}
