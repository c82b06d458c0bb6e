package models

// ChromaResponse is the 12 × frames chroma grid of an upload.
type ChromaResponse struct {
	Chroma [][]float64 `json:"chroma"`
}

// BeatsResponse lists beat times in seconds, ascending.
type BeatsResponse struct {
	Beats []float64 `json:"beats"`
}

// TempoResponse is the rounded tempo from POST /librosa/tempo.
type TempoResponse struct {
	Tempo int `json:"tempo"`
}

// AubioTempoResponse is the unrounded tempo from POST /aubio/tempo.
type AubioTempoResponse struct {
	Tempo float64 `json:"tempo"`
}

// KeyResponse is a detected tonic and mode.
type KeyResponse struct {
	Key  string `json:"key"`  // one of C C# D D# E F F# G G# A A# B
	Mode string `json:"mode"` // major, minor or mixolydian
}

// ScaleChordsRequest asks for the scale-degree triads of a key.
// Fields are validated by the handler so that a missing field and a bad
// body produce the same message.
type ScaleChordsRequest struct {
	Key  string `json:"key"`
	Mode string `json:"mode"`
}

// ScaleMidiRequest is ScaleChordsRequest plus playback options.
type ScaleMidiRequest struct {
	ScaleChordsRequest
	Tempo   int    `json:"tempo"`   // BPM (default 120)
	Beats   int    `json:"beats"`   // beats per chord (default 4)
	Pattern string `json:"pattern"` // "whole", "quarter", "arpeggio-up", "arpeggio-down"
}

// ChordsResponse holds the seven triad names, degree 1 first.
type ChordsResponse struct {
	Chords []string `json:"chords"`
}
