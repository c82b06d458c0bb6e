// Package dsp holds the signal analysis run on decoded PCM: spectrograms,
// chroma, onset strength, tempo, beats and key/mode estimation.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrogram is a magnitude STFT indexed [frame][bin], bins 0..NFFT/2 or
// fewer when band limited.
type Spectrogram struct {
	Mag        [][]float64
	SampleRate int
	NFFT       int
	Hop        int
}

// STFT computes a centred, Hann-windowed magnitude spectrogram. Frame t is
// centred on sample t*hop; the signal is zero-padded by nFFT/2 on each side.
func STFT(samples []float32, sr, nFFT, hop int) Spectrogram {
	return stft(samples, sr, nFFT, hop, nFFT/2+1)
}

// STFTBelow is STFT keeping only the bins up to and including maxFreq. Bin
// k still sits at BinFreq(k).
func STFTBelow(samples []float32, sr, nFFT, hop int, maxFreq float64) Spectrogram {
	bins := int(maxFreq*float64(nFFT)/float64(sr)) + 1
	return stft(samples, sr, nFFT, hop, max(1, min(bins, nFFT/2+1)))
}

func stft(samples []float32, sr, nFFT, hop, bins int) Spectrogram {
	spec := Spectrogram{SampleRate: sr, NFFT: nFFT, Hop: hop}
	if len(samples) == 0 || nFFT <= 0 || hop <= 0 {
		return spec
	}
	pad := nFFT / 2
	padded := make([]float64, len(samples)+2*pad)
	for i, s := range samples {
		padded[pad+i] = float64(s)
	}
	numFrames := 1 + (len(padded)-nFFT)/hop
	spec.Mag = make([][]float64, numFrames)

	hann := window.Hann(nFFT)
	frame := make([]float64, nFFT)
	for t := 0; t < numFrames; t++ {
		for i, w := range hann {
			frame[i] = padded[t*hop+i] * w
		}
		out := fft.FFTReal(frame)
		mag := make([]float64, bins)
		for k := 0; k < bins; k++ {
			mag[k] = cmplx.Abs(out[k])
		}
		spec.Mag[t] = mag
	}
	return spec
}

// Frames is the number of STFT frames.
func (s Spectrogram) Frames() int { return len(s.Mag) }

// BinFreq is the centre frequency of bin k in Hz.
func (s Spectrogram) BinFreq(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.NFFT)
}

// FrameTime is the time in seconds at the centre of frame t.
func (s Spectrogram) FrameTime(t int) float64 {
	return float64(t*s.Hop) / float64(s.SampleRate)
}

// pitchClass maps a frequency to 0..11 with C = 0 and A4 = 440 Hz.
func pitchClass(freq float64) int {
	midi := 12*math.Log2(freq/440.0) + 69
	pc := int(math.Round(midi)) % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}
