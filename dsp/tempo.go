package dsp

import "math"

const (
	minTempo   = 30.0
	maxTempo   = 320.0
	startTempo = 120.0 // centre of the log-normal tempo prior
	tempoStd   = 1.0   // prior width in octaves
)

// EstimateTempo returns the dominant tempo in BPM of an onset envelope
// sampled every hop samples. Candidate periods are scored by the envelope's
// autocorrelation weighted by a log-normal prior around 120 BPM, and the
// winning lag is refined by parabolic interpolation. Returns 0 when the
// envelope is too short or flat.
func EstimateTempo(onset []float64, sr, hop int) float64 {
	fps := float64(sr) / float64(hop)
	minLag := int(math.Floor(60 * fps / maxTempo))
	maxLag := int(math.Ceil(60 * fps / minTempo))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onset)-1 {
		maxLag = len(onset) - 2
	}
	if maxLag <= minLag+1 {
		return 0
	}

	mean := 0.0
	for _, v := range onset {
		mean += v
	}
	mean /= float64(len(onset))
	centred := smooth(onset)
	for i := range centred {
		centred[i] -= mean
	}

	score := make([]float64, maxLag+2)
	for lag := minLag - 1; lag <= maxLag+1; lag++ {
		if lag < 1 {
			continue
		}
		ac := 0.0
		for i := 0; i+lag < len(centred); i++ {
			ac += centred[i] * centred[i+lag]
		}
		ac /= float64(len(centred) - lag)
		if ac < 0 {
			ac = 0
		}
		bpm := 60 * fps / float64(lag)
		z := math.Log2(bpm/startTempo) / tempoStd
		score[lag] = ac * math.Exp(-0.5*z*z)
	}

	best := minLag
	for lag := minLag; lag <= maxLag; lag++ {
		if score[lag] > score[best] {
			best = lag
		}
	}
	if score[best] <= 0 {
		return 0
	}

	lag := float64(best)
	if best > 1 {
		y0, y1, y2 := score[best-1], score[best], score[best+1]
		if den := y0 - 2*y1 + y2; den < 0 {
			lag += math.Max(-0.5, math.Min(0.5, 0.5*(y0-y2)/den))
		}
	}
	return 60 * fps / lag
}

// smoothKernel widens single-frame onset spikes so that periods falling
// between two integer lags still correlate at both.
var smoothKernel = []float64{1, 2, 3, 2, 1}

func smooth(v []float64) []float64 {
	half := len(smoothKernel) / 2
	out := make([]float64, len(v))
	for i := range v {
		sum, weight := 0.0, 0.0
		for j, w := range smoothKernel {
			k := i + j - half
			if k < 0 || k >= len(v) {
				continue
			}
			sum += w * v[k]
			weight += w
		}
		out[i] = sum / weight
	}
	return out
}

// TrimMargins returns the [start, end) sample range left after removing
// margin samples from each end, or the whole signal when it is not longer
// than four margins.
func TrimMargins(n, margin int) (int, int) {
	if margin > 0 && n > 4*margin {
		return margin, n - margin
	}
	return 0, n
}
