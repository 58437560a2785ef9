// Package chords holds the chord voicings the harmonic track plays and the
// named progressions that fill its four slots.
package chords

import (
	"sort"

	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("chords")

// Library maps chord names to the pitches they are voiced with
type Library map[string][]string

// Default is the stock set of seventh chords, voiced around middle C
var Default = Library{
	"Cmaj7":  {"C4", "E4", "G4", "B4"},
	"Dm7":    {"D4", "F4", "A4", "C5"},
	"Em7":    {"E4", "G4", "B4", "D5"},
	"Fmaj7":  {"F4", "A4", "C5", "E5"},
	"G7":     {"G3", "B3", "D4", "F4"},
	"Am7":    {"A3", "C4", "E4", "G4"},
	"Bm7b5":  {"B3", "D4", "F4", "A4"},
	"Dm9":    {"D4", "F4", "A4", "C5", "E5"},
	"Gm7":    {"G3", "Bb3", "D4", "F4"},
	"Cm7":    {"C4", "Eb4", "G4", "Bb4"},
	"Fm7":    {"F3", "Ab3", "C4", "Eb4"},
	"Bb7":    {"Bb3", "D4", "F4", "Ab4"},
	"Ebmaj7": {"Eb4", "G4", "Bb4", "D5"},
	"Abmaj7": {"Ab3", "C4", "Eb4", "G4"},
}

// Resolve returns a copy of the chord's pitches, or nil for a name the
// library doesn't know
func (l Library) Resolve(chord string) []string {
	pitches, ok := l[chord]
	if !ok {
		logger.Ctx("Resolve").Vol(util.Quiet).Logf("no chord %q", chord)
		return nil
	}
	return append([]string(nil), pitches...)
}

// Names lists every chord in the library in alphabetical order
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next is the chord after current in Names order, wrapping around. An
// unknown current gives the first chord.
func (l Library) Next(current string) string {
	names := l.Names()
	if len(names) == 0 {
		return ""
	}
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
