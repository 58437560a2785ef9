package lofi

import (
	"strings"

	"github.com/pkg/errors"
	"tjweldon/lofi/src/synth"
)

// Track is a mix channel the listener controls the level of
type Track int

const (
	Drums Track = iota
	Chords
	Vinyl
)

// Tracks lists every track in display order
var Tracks = []Track{Drums, Chords, Vinyl}

func (t Track) String() string {
	switch t {
	case Drums:
		return "drums"
	case Chords:
		return "chords"
	case Vinyl:
		return "vinyl"
	default:
		return "unknown"
	}
}

// ParseTrack reads a track name as printed by String
func ParseTrack(name string) (Track, error) {
	for _, t := range Tracks {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidParameter, "no track %q", name)
}

// Range is the level, in dB, the track may be set to
func (t Track) Range() Range {
	switch t {
	case Drums:
		return Range{-20, 0}
	case Chords:
		return Range{-24, -3}
	case Vinyl:
		return Range{-40, -5}
	default:
		return Range{}
	}
}

type voiceTrim struct {
	voice synth.VoiceID
	trim  float64
}

// voices is how a track level fans out onto the voices it covers. The drum
// bus keeps the snare and hat sitting under the kick.
func (t Track) voices() []voiceTrim {
	switch t {
	case Drums:
		return []voiceTrim{{synth.Kick, 0}, {synth.Snare, -4}, {synth.HiHat, -14}}
	case Chords:
		return []voiceTrim{{synth.Chords, 0}}
	case Vinyl:
		return []voiceTrim{{synth.Vinyl, 0}}
	default:
		return nil
	}
}
