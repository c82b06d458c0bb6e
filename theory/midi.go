package theory

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerQuarter = 480 // resolution

// Patterns accepted by RenderMIDI.
var Patterns = map[string]bool{
	"whole":         true,
	"quarter":       true,
	"arpeggio-up":   true,
	"arpeggio-down": true,
}

// MidiOptions controls RenderMIDI. Zero values fall back to 120 BPM, four
// beats per chord and "whole".
type MidiOptions struct {
	Tempo   int
	Beats   int
	Pattern string
}

func (o *MidiOptions) applyDefaults() {
	if o.Tempo <= 0 {
		o.Tempo = 120
	}
	if o.Beats <= 0 {
		o.Beats = 4
	}
	if o.Pattern == "" {
		o.Pattern = "whole"
	}
}

// RenderMIDI plays the chords in order on channel 0 and returns a
// single-track Standard MIDI File.
func RenderMIDI(chords []Chord, opts MidiOptions) ([]byte, error) {
	opts.applyDefaults()
	if !Patterns[opts.Pattern] {
		return nil, fmt.Errorf("unknown pattern: %s", opts.Pattern)
	}

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(float64(opts.Tempo)))

	beatTicks := uint32(ticksPerQuarter)
	chordTicks := beatTicks * uint32(opts.Beats)

	for _, c := range chords {
		notes := c.MIDI
		if len(notes) == 0 {
			tr.Add(chordTicks, midi.NoteOff(0, 0))
			continue
		}
		switch opts.Pattern {
		case "quarter":
			// Block chord on every beat
			for beat := 0; beat < opts.Beats; beat++ {
				block(&tr, notes, beatTicks)
			}

		case "arpeggio-up", "arpeggio-down":
			ordered := make([]uint8, len(notes))
			copy(ordered, notes)
			if opts.Pattern == "arpeggio-down" {
				for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
					ordered[i], ordered[j] = ordered[j], ordered[i]
				}
			}
			noteDur := chordTicks / uint32(len(ordered))
			for _, n := range ordered {
				tr.Add(0, midi.NoteOn(0, n, 100))
				tr.Add(noteDur, midi.NoteOff(0, n))
			}

		default: // "whole": one block chord for the entire duration
			block(&tr, notes, chordTicks)
		}
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write midi: %w", err)
	}
	return buf.Bytes(), nil
}

// block sounds all notes together for dur ticks.
func block(tr *smf.Track, notes []uint8, dur uint32) {
	for _, n := range notes {
		tr.Add(0, midi.NoteOn(0, n, 100))
	}
	for j, n := range notes {
		var d uint32
		if j == 0 {
			d = dur
		}
		tr.Add(d, midi.NoteOff(0, n))
	}
}
