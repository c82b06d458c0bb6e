package dsp

import (
	"math"

	"github.com/mpiannucci/peakdetect"
)

const (
	peakDelta  = 0.1  // minimum rise of a normalised onset peak
	snapWindow = 0.15 // fraction of a beat period a beat may move to meet a peak
)

// TrackBeats returns beat times in seconds. The global tempo fixes the beat
// period, the phase is the offset whose grid collects the most onset energy,
// and each grid point is snapped to the strongest onset peak nearby.
func TrackBeats(onset []float64, sr, hop int) []float64 {
	bpm := EstimateTempo(onset, sr, hop)
	if bpm <= 0 {
		return []float64{}
	}
	fps := float64(sr) / float64(hop)
	period := 60 * fps / bpm

	norm := normalise(onset)
	_, _, maxIdx, _ := peakdetect.PeakDetect(norm, peakDelta)
	isPeak := make([]bool, len(norm))
	for _, i := range maxIdx {
		if i >= 0 && i < len(norm) {
			isPeak[i] = true
		}
	}

	phase := bestPhase(norm, period)
	radius := int(math.Max(1, math.Round(period*snapWindow)))

	beats := []float64{}
	last := -1
	for k := 0; ; k++ {
		expected := int(math.Round(phase + float64(k)*period))
		if expected >= len(norm) {
			break
		}
		frame := expected
		strongest := -1.0
		for i := expected - radius; i <= expected+radius; i++ {
			if i < 0 || i >= len(norm) || !isPeak[i] {
				continue
			}
			if norm[i] > strongest {
				strongest = norm[i]
				frame = i
			}
		}
		if frame <= last {
			continue
		}
		last = frame
		t := float64(frame) / fps
		beats = append(beats, math.Round(t*1000)/1000)
	}
	return beats
}

func bestPhase(env []float64, period float64) float64 {
	best, bestScore := 0.0, -1.0
	for p := 0; p < int(math.Ceil(period)); p++ {
		score := 0.0
		for x := float64(p); int(math.Round(x)) < len(env); x += period {
			score += env[int(math.Round(x))]
		}
		if score > bestScore {
			best, bestScore = float64(p), score
		}
	}
	return best
}

func normalise(v []float64) []float64 {
	peak := 0.0
	for _, x := range v {
		if x > peak {
			peak = x
		}
	}
	out := make([]float64, len(v))
	if peak <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / peak
	}
	return out
}
