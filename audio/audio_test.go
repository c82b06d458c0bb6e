package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestParseAubioTempo(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want float64
	}{
		{"bpm line", "123.78 bpm\n", 123.78},
		{"bpm with noise", "some warning\n99 bpm\n", 99},
		{"last bpm wins", "100.0 bpm\n120.5 bpm\n", 120.5},
		{"beat timestamps", "0.5\n1.0\n1.5\n2.0\n", 120},
		{"uneven timestamps", "0.0\n0.5\n1.0\n1.6\n2.1\n", 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAubioTempo(tc.out)
			if err != nil {
				t.Fatalf("ParseAubioTempo: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseAubioTempo_Empty(t *testing.T) {
	for _, out := range []string{"", "\n\n", "no numbers here"} {
		if _, err := ParseAubioTempo(out); err == nil {
			t.Errorf("ParseAubioTempo(%q) returned nil error", out)
		}
	}
}

func TestParseAubioTempo_NothingDetected(t *testing.T) {
	for _, out := range []string{"unknown bpm\n", "Unknown BPM", "1.0\n", "0.5\nunknown bpm\n", "2.0\n2.0\n"} {
		got, err := ParseAubioTempo(out)
		if err != nil || got != 0 {
			t.Errorf("ParseAubioTempo(%q) = %v, %v; want 0, nil", out, got, err)
		}
	}
}

func TestReadF32LE(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []float32{0, 0.5, -1} {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteByte(0x01) // partial trailing sample
	got, truncated, err := readF32LE(&buf, 0)
	if err != nil {
		t.Fatalf("readF32LE: %v", err)
	}
	if truncated {
		t.Error("unlimited read reported truncation")
	}
	want := []float32{0, 0.5, -1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReadF32LE_Limit(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 50000; i++ {
		binary.Write(&buf, binary.LittleEndian, float32(i))
	}
	got, truncated, err := readF32LE(&buf, 20000)
	if err != nil {
		t.Fatalf("readF32LE: %v", err)
	}
	if len(got) != 20000 || !truncated {
		t.Fatalf("len = %d truncated = %v, want 20000 true", len(got), truncated)
	}
	if got[19999] != 19999 {
		t.Errorf("last sample = %v, want 19999", got[19999])
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes left unread", buf.Len())
	}

	buf.Reset()
	for i := 0; i < 10; i++ {
		binary.Write(&buf, binary.LittleEndian, float32(i))
	}
	if got, truncated, _ := readF32LE(&buf, 10); len(got) != 10 || truncated {
		t.Errorf("exact limit: len = %d truncated = %v", len(got), truncated)
	}
}

func TestMaxSamples(t *testing.T) {
	if want := 20 * 60 * SampleRate; maxSamples != want {
		t.Errorf("maxSamples = %d, want %d", maxSamples, want)
	}
}

func TestFFmpeg_MissingBinary(t *testing.T) {
	f := FFmpeg{Path: filepath.Join(t.TempDir(), "no-such-ffmpeg")}
	if _, _, err := f.Decode(context.Background(), "x.mp3"); err == nil {
		t.Error("Decode with missing binary returned nil error")
	}
	if err := f.ToWAV(context.Background(), "x.mp3", filepath.Join(t.TempDir(), "x.wav")); err == nil {
		t.Error("ToWAV with missing binary returned nil error")
	}
}

func TestFFmpeg_ToWAVAndDecode(t *testing.T) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "tone.mp3")
	gen := exec.Command(bin, "-v", "error", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", src)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg cannot synthesise mp3: %v %s", err, out)
	}

	f := FFmpeg{Path: bin}
	dst := filepath.Join(dir, "tone.wav")
	if err := f.ToWAV(context.Background(), src, dst); err != nil {
		t.Fatalf("ToWAV: %v", err)
	}
	samples, sr, err := f.Decode(context.Background(), dst)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sr != SampleRate {
		t.Errorf("sample rate = %d, want %d", sr, SampleRate)
	}
	if len(samples) < SampleRate/2 {
		t.Errorf("decoded %d samples, want about %d", len(samples), SampleRate)
	}
}
