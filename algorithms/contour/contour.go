// Package contour provides post-processing for frame-level feature
// tracks whose unvoiced or masked frames are marked with zeros, such as
// pitch trajectories, coded aperiodicity bands, and energy curves.
package contour

// epsilon fills the contour when no voiced frame exists at all, keeping
// downstream logarithms finite.
const epsilon = 1e-10

// Interpolate converts a track with zero-valued gaps into a binary
// presence mask and a fully continuous contour.
//
// The mask holds 1 where the track is nonzero and 0 elsewhere. The
// continuous contour keeps nonzero frames as-is, extends the first and
// last nonzero values out to the edges, and fills interior gaps by
// linear interpolation between the flanking nonzero frames.
//
// If every frame is zero the mask is all zeros and the contour is
// filled with a small positive constant instead, so callers can take
// logarithms without producing infinities.
//
// The input slice is never modified.
func Interpolate(track []float64) (mask []float64, cont []float64) {
	mask = make([]float64, len(track))
	cont = make([]float64, len(track))

	first, last := -1, -1
	for i, v := range track {
		if v != 0 {
			mask[i] = 1.0
			if first < 0 {
				first = i
			}
			last = i
		}
		cont[i] = v
	}

	if first < 0 {
		for i := range cont {
			cont[i] = epsilon
		}
		return mask, cont
	}

	for i := 0; i < first; i++ {
		cont[i] = track[first]
	}
	for i := last + 1; i < len(cont); i++ {
		cont[i] = track[last]
	}

	// Linear interpolation across interior gaps.
	prev := first
	for i := first + 1; i <= last; i++ {
		if track[i] == 0 {
			continue
		}
		if i > prev+1 {
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				t := float64(j-prev) / span
				cont[j] = track[prev] + t*(track[i]-track[prev])
			}
		}
		prev = i
	}

	return mask, cont
}
