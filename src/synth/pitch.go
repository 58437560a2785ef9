package synth

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"tjweldon/lofi/src/util"
)

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParsePitch converts scientific pitch notation ("C4", "Bb3", "F#5") to a
// frequency in Hz, with A4 at 440.
func ParsePitch(name string) (float64, error) {
	if len(name) < 2 {
		return 0, errors.Errorf("pitch %q: too short", name)
	}
	semi, ok := semitones[name[0]]
	if !ok {
		return 0, errors.Errorf("pitch %q: unknown note letter", name)
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		semi++
		rest = rest[1:]
	case 'b':
		semi--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, errors.Wrapf(err, "pitch %q: bad octave", name)
	}

	midi := 12*(octave+1) + semi
	return 440 * math.Pow(2, float64(midi-69)/12), nil
}

// ParsePitches converts every name it can, logging and skipping the rest
func ParsePitches(names []string) []float64 {
	out := make([]float64, 0, len(names))
	for _, name := range names {
		hz, err := ParsePitch(name)
		if err != nil {
			logger.Ctx("ParsePitches").Vol(util.Loud).Log(err)
			continue
		}
		out = append(out, hz)
	}
	return out
}
