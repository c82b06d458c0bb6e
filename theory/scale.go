// Package theory builds scales and their scale-degree triads.
package theory

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/music-theory.v0/key"
	"gopkg.in/music-theory.v0/note"
)

// Chromatic lists the twelve pitch-class labels, C = 0.
var Chromatic = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ErrUnsupportedMode is returned for a mode other than major, minor or
// mixolydian.
var ErrUnsupportedMode = errors.New("unsupported mode")

// modeIntervals are semitone offsets of the seven degrees from the tonic.
var modeIntervals = map[string][7]int{
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"minor":      {0, 2, 3, 5, 7, 8, 10}, // natural minor
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
}

var letters = []byte{'C', 'D', 'E', 'F', 'G', 'A', 'B'}
var letterPC = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ReferenceMIDI is C4; every chord is voiced upward from the first root at
// or above it.
const ReferenceMIDI = 60

// Scale is a seven-degree scale spelled with one letter per degree.
type Scale struct {
	Tonic string
	Mode  string
	Notes [7]string // spelled names, e.g. "Bb"
	PCs   [7]int    // pitch classes, C = 0
}

// Chord is a triad built on one scale degree.
type Chord struct {
	Degree  int
	Root    string
	Quality string   // major, minor, diminished, augmented
	Pitches []string // e.g. ["C4", "E4", "G4"]
	MIDI    []uint8
}

// Name renders the chord as "<root>-<quality> triad".
func (c Chord) Name() string {
	return fmt.Sprintf("%s-%s triad", c.Root, c.Quality)
}

// ParseTonic validates a tonic such as "A", "f#", "Bb" or "B-" and returns
// its canonical spelling and pitch class. "-" is accepted as a flat and
// spelled "b".
func ParseTonic(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 2 {
		return "", 0, fmt.Errorf("invalid key: %q", s)
	}
	letter := s[0] &^ 0x20 // upper case
	if _, ok := letterPC[letter]; !ok {
		return "", 0, fmt.Errorf("invalid key: %q", s)
	}
	spelled := string(letter)
	if len(s) == 2 {
		switch s[1] {
		case '#', 'b':
			spelled += string(s[1])
		case '-':
			spelled += "b"
		default:
			return "", 0, fmt.Errorf("invalid key: %q", s)
		}
	}

	k := key.Of(spelled)
	if k.Root == note.Nil {
		return "", 0, fmt.Errorf("invalid key: %q", s)
	}
	return spelled, int(k.Root - note.C), nil
}

// NewScale spells the scale of the given tonic and mode.
func NewScale(tonic, mode string) (Scale, error) {
	intervals, ok := modeIntervals[mode]
	if !ok {
		return Scale{}, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
	spelled, pc, err := ParseTonic(tonic)
	if err != nil {
		return Scale{}, err
	}

	sc := Scale{Tonic: spelled, Mode: mode}
	start := strings.IndexByte(string(letters), spelled[0])
	for i, iv := range intervals {
		target := (pc + iv) % 12
		letter := letters[(start+i)%7]
		sc.PCs[i] = target
		sc.Notes[i] = string(letter) + accidental(target-letterPC[letter])
	}
	return sc, nil
}

// Chords returns the triads on degrees 1 through 7.
func (sc Scale) Chords() []Chord {
	chords := make([]Chord, 7)
	for i := range chords {
		third := sc.PCs[(i+2)%7]
		fifth := sc.PCs[(i+4)%7]
		toThird := (third - sc.PCs[i] + 12) % 12
		toFifth := (fifth - sc.PCs[i] + 12) % 12

		root := ReferenceMIDI + sc.PCs[i]
		midi := []int{root, root + toThird, root + toFifth}
		names := []string{sc.Notes[i], sc.Notes[(i+2)%7], sc.Notes[(i+4)%7]}

		c := Chord{
			Degree:  i + 1,
			Root:    sc.Notes[i],
			Quality: triadQuality(toThird, toFifth),
		}
		for j, m := range midi {
			c.MIDI = append(c.MIDI, uint8(m))
			c.Pitches = append(c.Pitches, withOctave(names[j], m))
		}
		chords[i] = c
	}
	return chords
}

// ScaleChords is the lookup behind POST /scale/chords: the names of the seven
// scale-degree triads of tonic/mode.
func ScaleChords(tonic, mode string) ([]string, error) {
	sc, err := NewScale(tonic, mode)
	if err != nil {
		return nil, err
	}
	chords := sc.Chords()
	names := make([]string, len(chords))
	for i, c := range chords {
		names[i] = c.Name()
	}
	return names, nil
}

func triadQuality(third, fifth int) string {
	switch {
	case third == 4 && fifth == 7:
		return "major"
	case third == 3 && fifth == 7:
		return "minor"
	case third == 3 && fifth == 6:
		return "diminished"
	case third == 4 && fifth == 8:
		return "augmented"
	}
	return fmt.Sprintf("(%d,%d)", third, fifth)
}

// accidental renders a semitone offset from a natural letter, wrapped into
// -6..5.
func accidental(diff int) string {
	diff = ((diff+6)%12+12)%12 - 6
	switch {
	case diff > 0:
		return strings.Repeat("#", diff)
	case diff < 0:
		return strings.Repeat("b", -diff)
	}
	return ""
}

// withOctave appends the scientific octave to a spelled name, so that B#3
// and C4 both sound as MIDI 60.
func withOctave(name string, midi int) string {
	offset := 0
	for _, r := range name[1:] {
		switch r {
		case '#':
			offset++
		case 'b':
			offset--
		}
	}
	return fmt.Sprintf("%s%d", name, (midi-offset)/12-1)
}
