package dsp

const chromaMinFreq = 32.7 // C1

// ChromaMaxFreq is the highest frequency Chroma reads. Above it harmonics
// dominate and add noise.
const ChromaMaxFreq = 5000.0

// Chroma folds the power spectrum of each frame into 12 pitch classes and
// normalises every frame by its largest bin. The result is indexed
// [pitchClass][frame], C = 0.
func Chroma(spec Spectrogram) [][]float64 {
	n := spec.Frames()
	out := make([][]float64, 12)
	for pc := range out {
		out[pc] = make([]float64, n)
	}
	if n == 0 {
		return out
	}

	bins := len(spec.Mag[0])
	classes := make([]int, bins)
	for k := 0; k < bins; k++ {
		f := spec.BinFreq(k)
		if f < chromaMinFreq || f > ChromaMaxFreq {
			classes[k] = -1
			continue
		}
		classes[k] = pitchClass(f)
	}

	for t, mag := range spec.Mag {
		var frame [12]float64
		for k, m := range mag {
			if pc := classes[k]; pc >= 0 {
				frame[pc] += m * m
			}
		}
		peak := 0.0
		for _, v := range frame {
			if v > peak {
				peak = v
			}
		}
		if peak <= 1e-12 {
			continue
		}
		for pc := range frame {
			out[pc][t] = frame[pc] / peak
		}
	}
	return out
}

// MeanOverTime averages each chroma row.
func MeanOverTime(chroma [][]float64) []float64 {
	mean := make([]float64, len(chroma))
	for pc, row := range chroma {
		if len(row) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		mean[pc] = sum / float64(len(row))
	}
	return mean
}
