package dsp

import "slices"

// HarmonicKernel is the median filter length used by Harmonic, in frames and
// in bins.
const HarmonicKernel = 31

// Harmonic keeps the harmonic part of a magnitude spectrogram. Harmonic
// energy is smooth along time and percussive energy along frequency, so each
// is estimated with a median filter in that direction and the input is
// scaled by the soft mask H²/(H²+P²). The result has the same shape as spec.
// Pass a band-limited spectrogram (STFTBelow) to bound the cost.
func Harmonic(spec Spectrogram, kernel int) Spectrogram {
	out := Spectrogram{SampleRate: spec.SampleRate, NFFT: spec.NFFT, Hop: spec.Hop}
	n := spec.Frames()
	if n == 0 {
		return out
	}
	bins := len(spec.Mag[0])
	half := kernel / 2

	// time medians, one bin at a time; the result rows are reused for the
	// masked output below
	out.Mag = make([][]float64, n)
	for t := range out.Mag {
		out.Mag[t] = make([]float64, bins)
	}
	col := make([]float64, n)
	med := make([]float64, n)
	win := make([]float64, 0, kernel)
	for k := 0; k < bins; k++ {
		for t := 0; t < n; t++ {
			col[t] = spec.Mag[t][k]
		}
		win = slidingMedian(col, half, med, win)
		for t := 0; t < n; t++ {
			out.Mag[t][k] = med[t]
		}
	}

	perc := make([]float64, bins)
	for t, row := range spec.Mag {
		win = slidingMedian(row, half, perc, win)
		res := out.Mag[t]
		for k, m := range row {
			hh, pp := res[k]*res[k], perc[k]*perc[k]
			if hh+pp <= 1e-20 {
				res[k] = 0
				continue
			}
			res[k] = m * hh / (hh + pp)
		}
	}
	return out
}

// slidingMedian writes to dst[i] the median of src[i-half : i+half+1],
// clipped to the bounds of src. win is scratch space, returned for reuse.
func slidingMedian(src []float64, half int, dst, win []float64) []float64 {
	win = win[:0]
	n := len(src)
	for j := 0; j < half && j < n; j++ {
		win = insertSorted(win, src[j])
	}
	for i := 0; i < n; i++ {
		if j := i + half; j < n {
			win = insertSorted(win, src[j])
		}
		if j := i - half - 1; j >= 0 {
			win = removeSorted(win, src[j])
		}
		dst[i] = medianSorted(win)
	}
	return win
}

func insertSorted(win []float64, v float64) []float64 {
	i, _ := slices.BinarySearch(win, v)
	return slices.Insert(win, i, v)
}

func removeSorted(win []float64, v float64) []float64 {
	if i, ok := slices.BinarySearch(win, v); ok {
		return slices.Delete(win, i, i+1)
	}
	return win
}

func medianSorted(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := len(v) / 2
	if len(v)%2 == 0 {
		return (v[m-1] + v[m]) / 2
	}
	return v[m]
}
