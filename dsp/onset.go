package dsp

import "math"

const topDB = 80.0

// OnsetStrength is the half-wave rectified spectral flux of the log-power
// spectrogram, averaged across bins. One value per STFT frame; frame 0 is 0.
func OnsetStrength(spec Spectrogram) []float64 {
	n := spec.Frames()
	env := make([]float64, n)
	if n < 2 {
		return env
	}

	db := make([][]float64, n)
	ceiling := math.Inf(-1)
	for t, mag := range spec.Mag {
		row := make([]float64, len(mag))
		for k, m := range mag {
			row[k] = 10 * math.Log10(math.Max(m*m, 1e-10))
			if row[k] > ceiling {
				ceiling = row[k]
			}
		}
		db[t] = row
	}
	floor := ceiling - topDB
	for _, row := range db {
		for k := range row {
			if row[k] < floor {
				row[k] = floor
			}
		}
	}

	for t := 1; t < n; t++ {
		flux := 0.0
		for k := range db[t] {
			if d := db[t][k] - db[t-1][k]; d > 0 {
				flux += d
			}
		}
		env[t] = flux / float64(len(db[t]))
	}
	return env
}
