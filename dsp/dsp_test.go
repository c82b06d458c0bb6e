package dsp

import (
	"math"
	"sort"
	"testing"
)

const testSR = 22050

func sine(freq, seconds float64) []float32 {
	n := int(seconds * testSR)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/testSR))
	}
	return out
}

// clicks returns a train of short bursts at the given tempo.
func clicks(bpm, seconds float64) []float32 {
	n := int(seconds * testSR)
	out := make([]float32, n)
	period := 60 / bpm * testSR
	for start := 0.0; int(start) < n; start += period {
		for j := 0; j < 64 && int(start)+j < n; j++ {
			out[int(start)+j] = float32(math.Sin(2 * math.Pi * 1000 * float64(j) / testSR))
		}
	}
	return out
}

func TestSTFT_Shape(t *testing.T) {
	spec := STFT(make([]float32, testSR), testSR, 2048, 512)
	if want := 1 + testSR/512; spec.Frames() != want {
		t.Errorf("frames = %d, want %d", spec.Frames(), want)
	}
	if len(spec.Mag[0]) != 1025 {
		t.Errorf("bins = %d, want 1025", len(spec.Mag[0]))
	}
	if empty := STFT(nil, testSR, 2048, 512); empty.Frames() != 0 {
		t.Errorf("empty input gave %d frames", empty.Frames())
	}
}

func TestSTFT_PeakBin(t *testing.T) {
	spec := STFT(sine(1000, 1), testSR, 2048, 512)
	mid := spec.Mag[spec.Frames()/2]
	best := 0
	for k := range mid {
		if mid[k] > mid[best] {
			best = k
		}
	}
	if f := spec.BinFreq(best); math.Abs(f-1000) > spec.BinFreq(1) {
		t.Errorf("peak at %.1f Hz, want ~1000", f)
	}
}

func TestPitchClass(t *testing.T) {
	cases := []struct {
		freq float64
		want int
	}{
		{261.63, 0}, {440, 9}, {220, 9}, {493.88, 11}, {277.18, 1}, {32.7, 0},
	}
	for _, tc := range cases {
		if got := pitchClass(tc.freq); got != tc.want {
			t.Errorf("pitchClass(%v) = %d, want %d", tc.freq, got, tc.want)
		}
	}
}

func TestChroma_A440(t *testing.T) {
	spec := STFT(sine(440, 2), testSR, 2048, 512)
	chroma := Chroma(spec)
	if len(chroma) != 12 {
		t.Fatalf("rows = %d, want 12", len(chroma))
	}
	if len(chroma[0]) != spec.Frames() {
		t.Fatalf("cols = %d, want %d", len(chroma[0]), spec.Frames())
	}
	mean := MeanOverTime(chroma)
	if got := Tonic(mean); got != 9 {
		t.Errorf("dominant pitch class = %d, want 9 (A); mean=%v", got, mean)
	}
	for pc, row := range chroma {
		for ti, v := range row {
			if v < 0 || v > 1+1e-9 {
				t.Fatalf("chroma[%d][%d] = %v outside [0,1]", pc, ti, v)
			}
		}
	}
}

func TestChroma_SilenceIsZero(t *testing.T) {
	chroma := Chroma(STFT(make([]float32, 4096), testSR, 2048, 512))
	for _, row := range chroma {
		for _, v := range row {
			if v != 0 {
				t.Fatalf("silence produced chroma %v", v)
			}
		}
	}
}

func TestHarmonic_KeepsSustainedTone(t *testing.T) {
	spec := STFT(sine(440, 2), testSR, 2048, 512)
	mean := MeanOverTime(Chroma(Harmonic(spec, HarmonicKernel)))
	if got := Tonic(mean); got != 9 {
		t.Errorf("harmonic tonic = %d, want 9 (A)", got)
	}
}

func TestSTFTBelow_BandLimited(t *testing.T) {
	full := STFT(sine(440, 1), testSR, 4096, 512)
	band := STFTBelow(sine(440, 1), testSR, 4096, 512, ChromaMaxFreq)
	if band.Frames() != full.Frames() {
		t.Fatalf("frames = %d, want %d", band.Frames(), full.Frames())
	}
	bins := len(band.Mag[0])
	if top := band.BinFreq(bins - 1); top > ChromaMaxFreq || band.BinFreq(bins) <= ChromaMaxFreq {
		t.Errorf("last bin at %.1f Hz, want the last one at or below %.0f", top, ChromaMaxFreq)
	}
	for k := 0; k < bins; k++ {
		if band.Mag[5][k] != full.Mag[5][k] {
			t.Fatalf("bin %d differs from the full spectrogram", k)
		}
	}
}

func TestHarmonic_BandLimitedKeepsA(t *testing.T) {
	spec := STFTBelow(sine(440, 2), testSR, 4096, 512, ChromaMaxFreq)
	h := Harmonic(spec, HarmonicKernel)
	if h.Frames() != spec.Frames() || len(h.Mag[0]) != len(spec.Mag[0]) {
		t.Fatalf("shape %dx%d, want %dx%d", h.Frames(), len(h.Mag[0]), spec.Frames(), len(spec.Mag[0]))
	}
	if got := Tonic(MeanOverTime(Chroma(h))); got != 9 {
		t.Errorf("harmonic tonic = %d, want 9 (A)", got)
	}
}

func TestSlidingMedian_MatchesSort(t *testing.T) {
	src := make([]float64, 200)
	for i := range src {
		// deterministic, with repeats
		src[i] = float64((i * 37) % 23)
	}
	for _, half := range []int{0, 1, 3, 15} {
		got := make([]float64, len(src))
		slidingMedian(src, half, got, nil)
		for i := range src {
			window := append([]float64(nil), src[max(0, i-half):min(len(src), i+half+1)]...)
			sort.Float64s(window)
			if want := medianSorted(window); got[i] != want {
				t.Fatalf("half=%d i=%d: median = %v, want %v", half, i, got[i], want)
			}
		}
	}
}

// BenchmarkKeyChain_FourMinutes runs the key estimation chain on a
// song-length tone.
func BenchmarkKeyChain_FourMinutes(b *testing.B) {
	samples := sine(440, 240)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		spec := STFTBelow(samples, testSR, 4096, 512, ChromaMaxFreq)
		if got := Tonic(MeanOverTime(Chroma(Harmonic(spec, HarmonicKernel)))); got != 9 {
			b.Fatalf("tonic = %d, want 9", got)
		}
	}
}

func TestOnsetStrength_Clicks(t *testing.T) {
	env := OnsetStrength(STFT(clicks(120, 4), testSR, 2048, 512))
	if env[0] != 0 {
		t.Errorf("env[0] = %v, want 0", env[0])
	}
	nonzero := 0
	for _, v := range env {
		if v < 0 {
			t.Fatalf("negative onset strength %v", v)
		}
		if v > 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Error("click train produced a flat onset envelope")
	}
}

func TestEstimateTempo_ClickTrain(t *testing.T) {
	for _, bpm := range []float64{90, 120, 140} {
		env := OnsetStrength(STFT(clicks(bpm, 20), testSR, 2048, 512))
		got := EstimateTempo(env, testSR, 512)
		if math.Abs(got-bpm) > 4 {
			t.Errorf("EstimateTempo(%v BPM clicks) = %.2f", bpm, got)
		}
	}
}

func TestEstimateTempo_TooShort(t *testing.T) {
	if got := EstimateTempo(make([]float64, 5), testSR, 512); got != 0 {
		t.Errorf("short envelope tempo = %v, want 0", got)
	}
	if got := EstimateTempo(make([]float64, 1000), testSR, 512); got != 0 {
		t.Errorf("flat envelope tempo = %v, want 0", got)
	}
}

func TestTrackBeats_ClickTrain(t *testing.T) {
	env := OnsetStrength(STFT(clicks(120, 10), testSR, 2048, 512))
	beats := TrackBeats(env, testSR, 512)
	if len(beats) < 17 || len(beats) > 21 {
		t.Fatalf("got %d beats over 10 s at 120 BPM: %v", len(beats), beats)
	}
	if !sort.Float64sAreSorted(beats) {
		t.Fatalf("beats not ascending: %v", beats)
	}
	ioi := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		ioi = append(ioi, beats[i]-beats[i-1])
	}
	sort.Float64s(ioi)
	if med := ioi[len(ioi)/2]; math.Abs(med-0.5) > 0.03 {
		t.Errorf("median inter-beat interval = %.3f, want ~0.5", med)
	}
}

func TestTrackBeats_Silence(t *testing.T) {
	if beats := TrackBeats(make([]float64, 500), testSR, 512); len(beats) != 0 {
		t.Errorf("silence produced beats %v", beats)
	}
}

func TestTrimMargins(t *testing.T) {
	margin := 15 * testSR
	cases := []struct {
		n          int
		start, end int
	}{
		{4*margin + 1, margin, 3*margin + 1},
		{4 * margin, 0, 4 * margin},
		{margin, 0, margin},
		{0, 0, 0},
	}
	for _, tc := range cases {
		s, e := TrimMargins(tc.n, margin)
		if s != tc.start || e != tc.end {
			t.Errorf("TrimMargins(%d) = [%d,%d), want [%d,%d)", tc.n, s, e, tc.start, tc.end)
		}
	}
}

func TestClassifyMode(t *testing.T) {
	// tonic A (9): +8 = F, +9 = F#, +10 = G, +11 = G#
	base := func() []float64 { return make([]float64, 12) }
	cases := []struct {
		name string
		set  map[int]float64
		want string
	}{
		{"default major", map[int]float64{5: 0.5, 6: 0.2, 7: 0.1, 8: 0.4}, ModeMajor},
		{"minor", map[int]float64{6: 0.5, 5: 0.2, 8: 0.4, 7: 0.1}, ModeMinor},
		{"mixolydian", map[int]float64{7: 0.5, 8: 0.2}, ModeMixolydian},
		{"mixolydian overrides minor", map[int]float64{6: 0.5, 5: 0.2, 7: 0.5, 8: 0.2}, ModeMixolydian},
		{"ties stay major", map[int]float64{}, ModeMajor},
	}
	for _, tc := range cases {
		c := base()
		c[9] = 1
		for pc, v := range tc.set {
			c[pc] = v
		}
		if got := ClassifyMode(c, 9); got != tc.want {
			t.Errorf("%s: ClassifyMode = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestTonic(t *testing.T) {
	c := []float64{0.1, 0.2, 0.9, 0.3, 0, 0, 0, 0, 0, 0, 0, 0.9}
	if got := Tonic(c); got != 2 {
		t.Errorf("Tonic = %d, want 2 (first maximum)", got)
	}
}
