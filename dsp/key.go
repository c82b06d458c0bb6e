package dsp

// Mode labels returned by ClassifyMode.
const (
	ModeMajor      = "major"
	ModeMinor      = "minor"
	ModeMixolydian = "mixolydian"
)

// Tonic is the pitch class (C = 0) with the largest mean chroma energy. Ties
// go to the lowest pitch class.
func Tonic(chromaMean []float64) int {
	best := 0
	for pc := 1; pc < len(chromaMean) && pc < 12; pc++ {
		if chromaMean[pc] > chromaMean[best] {
			best = pc
		}
	}
	return best
}

// ClassifyMode compares chroma energy at fixed offsets from the tonic. The
// mixolydian test runs after the minor test and overrides it when both hold.
func ClassifyMode(chromaMean []float64, tonic int) string {
	if len(chromaMean) < 12 {
		return ModeMajor
	}
	at := func(offset int) float64 { return chromaMean[(tonic+offset)%12] }

	mode := ModeMajor
	if at(9) > at(8) {
		mode = ModeMinor
	}
	if at(10) > at(11) {
		mode = ModeMixolydian
	}
	return mode
}
