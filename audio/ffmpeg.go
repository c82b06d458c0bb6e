// Package audio wraps the external tools the gateway delegates to: ffmpeg for
// decoding and container conversion, aubio for tempo tracking.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/schollz/logger"
)

// SampleRate is the rate every asset is decoded at before analysis.
const SampleRate = 22050

// MaxDuration is the most audio Decode returns; the rest of a longer asset
// is not decoded.
const MaxDuration = 20 * time.Minute

// maxSamples is MaxDuration at SampleRate.
const maxSamples = int(MaxDuration/time.Second) * SampleRate

// ErrNoAudio is returned when a file decodes to zero samples.
var ErrNoAudio = errors.New("no audio data decoded")

// FFmpeg runs the ffmpeg binary at Path.
type FFmpeg struct {
	Path string
}

// Decode returns the asset at path as mono float32 PCM at SampleRate.
func (f FFmpeg) Decode(ctx context.Context, path string) ([]float32, int, error) {
	cmd := exec.CommandContext(ctx, f.bin(),
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-t", strconv.Itoa(int(MaxDuration/time.Second)),
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("start ffmpeg: %w", err)
	}
	samples, truncated, readErr := readF32LE(stdout, maxSamples)
	if waitErr := cmd.Wait(); waitErr != nil {
		return nil, 0, fmt.Errorf("decode %s: %w (%s)", path, waitErr, strings.TrimSpace(stderr.String()))
	}
	if readErr != nil {
		return nil, 0, fmt.Errorf("read pcm: %w", readErr)
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("%w from %s", ErrNoAudio, path)
	}
	if truncated {
		log.Debugf("decoded %s cut at %s", path, MaxDuration)
	}
	log.Debugf("decoded %s: %d samples at %d Hz", path, len(samples), SampleRate)
	return samples, SampleRate, nil
}

// ToWAV converts src to a 16-bit PCM WAV file at dst, keeping the source
// rate and channel layout.
func (f FFmpeg) ToWAV(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, f.bin(),
		"-v", "error",
		"-y",
		"-i", src,
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	log.Debugf("file converted to WAV: %s", dst)
	return nil
}

func (f FFmpeg) bin() string {
	if f.Path == "" {
		return "ffmpeg"
	}
	return f.Path
}

// readF32LE reads little-endian float32 samples until EOF, keeping at most
// limit of them (no limit when limit <= 0). Input past the limit is drained
// and reported as truncated. A trailing partial sample is dropped.
func readF32LE(r io.Reader, limit int) ([]float32, bool, error) {
	src := r
	if limit > 0 {
		src = io.LimitReader(r, int64(limit)*4)
	}
	var samples []float32
	buf := make([]byte, 64<<10)
	for {
		n, err := io.ReadFull(src, buf)
		for i := 0; i+4 <= n; i += 4 {
			samples = append(samples, math.Float32frombits(binary.LittleEndian.Uint32(buf[i:i+4])))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
	}
	// the writer must be able to finish
	extra, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, false, err
	}
	return samples, extra > 0, nil
}
