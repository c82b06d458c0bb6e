// Package analysis is the set of capabilities the gateway delegates to. Each
// method takes the path of a staged file and returns one result shape; none
// of them keep state between calls.
package analysis

import (
	"context"
	"math"

	log "github.com/schollz/logger"

	"bandbridge/audio"
	"bandbridge/dsp"
	"bandbridge/theory"
)

const (
	nFFT    = 2048
	hop     = 512
	keyNFFT = 4096

	// TrimSeconds is removed from each end before tempo estimation.
	TrimSeconds = 15
	// TempoBias corrects the systematic under-estimate of EstimateTempo.
	TempoBias = 1.006
)

// KeyEstimate is a detected tonic and mode.
type KeyEstimate struct {
	Key  string
	Mode string
}

// Analyzer is what the handlers call.
type Analyzer interface {
	Chroma(ctx context.Context, path string) ([][]float64, error)
	Beats(ctx context.Context, path string) ([]float64, error)
	Tempo(ctx context.Context, path string) (int, error)
	ConvertWAV(ctx context.Context, src, dst string) error
	AubioTempo(ctx context.Context, wavPath string) (float64, error)
	Key(ctx context.Context, path string) (KeyEstimate, error)
}

// Decoder turns an audio file into mono PCM.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]float32, int, error)
}

// Converter writes a WAV copy of src to dst.
type Converter interface {
	ToWAV(ctx context.Context, src, dst string) error
}

// TempoTracker estimates BPM from a WAV file.
type TempoTracker interface {
	Tempo(ctx context.Context, wavPath string) (float64, error)
}

// Service is the production Analyzer.
type Service struct {
	Decoder   Decoder
	Converter Converter
	Tracker   TempoTracker
}

// New wires a Service to the ffmpeg and aubio binaries.
func New(ffmpegPath, aubioPath string) *Service {
	ff := audio.FFmpeg{Path: ffmpegPath}
	return &Service{
		Decoder:   ff,
		Converter: ff,
		Tracker:   audio.Aubio{Path: aubioPath},
	}
}

// Chroma returns the 12 × frames chroma grid of the asset.
func (s *Service) Chroma(ctx context.Context, path string) ([][]float64, error) {
	samples, sr, err := s.Decoder.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	return dsp.Chroma(dsp.STFT(samples, sr, nFFT, hop)), nil
}

// Beats returns beat times in seconds.
func (s *Service) Beats(ctx context.Context, path string) ([]float64, error) {
	samples, sr, err := s.Decoder.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	onset := dsp.OnsetStrength(dsp.STFT(samples, sr, nFFT, hop))
	return dsp.TrackBeats(onset, sr, hop), nil
}

// Tempo estimates BPM over the middle of the asset and returns it bias
// corrected and rounded.
func (s *Service) Tempo(ctx context.Context, path string) (int, error) {
	samples, sr, err := s.Decoder.Decode(ctx, path)
	if err != nil {
		return 0, err
	}
	return TempoOf(samples, sr)
}

// TempoOf is Tempo on already decoded samples. Audio without onsets has
// tempo 0.
func TempoOf(samples []float32, sr int) (int, error) {
	start, end := dsp.TrimMargins(len(samples), TrimSeconds*sr)
	onset := dsp.OnsetStrength(dsp.STFT(samples[start:end], sr, nFFT, hop))
	bpm := dsp.EstimateTempo(onset, sr, hop)
	if bpm <= 0 {
		log.Debugf("no tempo in samples [%d,%d)", start, end)
		return 0, nil
	}
	log.Debugf("raw tempo %.3f over samples [%d,%d)", bpm, start, end)
	return int(math.Round(bpm * TempoBias)), nil
}

// ConvertWAV writes a WAV copy of src to dst.
func (s *Service) ConvertWAV(ctx context.Context, src, dst string) error {
	return s.Converter.ToWAV(ctx, src, dst)
}

// AubioTempo runs aubio's tempo tracker on a WAV file.
func (s *Service) AubioTempo(ctx context.Context, wavPath string) (float64, error) {
	return s.Tracker.Tempo(ctx, wavPath)
}

// Key estimates the tonic and mode from the harmonic component.
func (s *Service) Key(ctx context.Context, path string) (KeyEstimate, error) {
	samples, sr, err := s.Decoder.Decode(ctx, path)
	if err != nil {
		return KeyEstimate{}, err
	}
	return KeyOf(samples, sr), nil
}

// KeyOf is Key on already decoded samples.
func KeyOf(samples []float32, sr int) KeyEstimate {
	// only the bins Chroma reads go through the median filters
	spec := dsp.STFTBelow(samples, sr, keyNFFT, hop, dsp.ChromaMaxFreq)
	harmonic := dsp.Harmonic(spec, dsp.HarmonicKernel)
	mean := dsp.MeanOverTime(dsp.Chroma(harmonic))
	tonic := dsp.Tonic(mean)
	return KeyEstimate{
		Key:  theory.Chromatic[tonic],
		Mode: dsp.ClassifyMode(mean, tonic),
	}
}
