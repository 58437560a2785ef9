// Package examples holds the stock drum patterns
package examples

import (
	"github.com/pkg/errors"
	"tjweldon/lofi/src/sequencer"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{Volume: util.Loud}.Ctx("examples/drum_machine")

// DrumPattern is a named percussion pattern, one 16 step string per voice
type DrumPattern struct {
	Name               string
	Kick, Snare, HiHat string
}

// DefaultDrums is the pattern the beat maker starts with
const DefaultDrums = "lofi"

// Drums are the stock patterns, in menu order
var Drums = []DrumPattern{
	// kick on the beat, snare on 2 and 4, eighth note hats
	{
		Name:  "lofi",
		Kick:  "1000100010001000",
		Snare: "0000100000001000",
		HiHat: "1010101010101010",
	},

	// 4 to the floor kick, off beat clap, busy hats
	{
		Name:  "four-on-the-floor",
		Kick:  "1000100010001000",
		Snare: "0010001000100010",
		HiHat: "1011101110111010",
	},

	// the backbeat lands on 3
	{
		Name:  "half-time",
		Kick:  "1000000000100000",
		Snare: "0000000010000000",
		HiHat: "1010101010101010",
	},

	// lazy kick pushed off the beat
	{
		Name:  "boom-bap",
		Kick:  "1000000100100000",
		Snare: "0000100000001000",
		HiHat: "1010101010101011",
	},
}

// FindDrums looks a stock pattern up by name
func FindDrums(name string) (DrumPattern, error) {
	for _, d := range Drums {
		if d.Name == name {
			return d, nil
		}
	}
	return DrumPattern{}, errors.Errorf("no drum pattern %q", name)
}

// DrumNames lists the stock patterns
func DrumNames() []string {
	return util.Map(func(d DrumPattern) string { return d.Name }, Drums)
}

// Steps parses the pattern for the sequencer
func (d DrumPattern) Steps() (pattern sequencer.StepPattern, err error) {
	logger := logger.Ctx("Steps").Vol(util.Normal)

	if pattern.Kick, err = sequencer.ParseSteps(d.Kick); err != nil {
		return pattern, errors.Wrapf(err, "%s kick", d.Name)
	}
	if pattern.Snare, err = sequencer.ParseSteps(d.Snare); err != nil {
		return pattern, errors.Wrapf(err, "%s snare", d.Name)
	}
	if pattern.HiHat, err = sequencer.ParseSteps(d.HiHat); err != nil {
		return pattern, errors.Wrapf(err, "%s hihat", d.Name)
	}

	logger.Log(d.Name, "kick", d.Kick, "snare", d.Snare, "hihat", d.HiHat)
	return pattern, nil
}

// Override returns d with any non-empty voice of other swapped in
func (d DrumPattern) Override(other DrumPattern) DrumPattern {
	if other.Kick != "" {
		d.Kick = other.Kick
	}
	if other.Snare != "" {
		d.Snare = other.Snare
	}
	if other.HiHat != "" {
		d.HiHat = other.HiHat
	}
	return d
}
