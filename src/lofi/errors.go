package lofi

import (
	"github.com/pkg/errors"
	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/util"
)

var (
	// ErrInvalidParameter is returned, wrapped with the offending value, for
	// any setter input outside its documented range. The call has no effect.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownPreset is returned when a named preset isn't in the store
	ErrUnknownPreset = errors.New("unknown preset")
)

// Range is a closed interval a parameter must fall in
type Range struct {
	Min, Max float64
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Clamp pulls v into the range
func (r Range) Clamp(v float64) float64 { return util.Clamp(v, r.Min, r.Max) }

var (
	TempoRange  = Range{60, 100}
	SwingRange  = Range{0, 1}
	FilterRange = Range{200, 2000}
)

// MaxLookahead bounds how far ahead of time ticks are dispatched: one
// measure at the fastest tempo
var MaxLookahead = 4 * clock.Tempo{BPM: int(TempoRange.Max)}.Quantum()

func invalid(what string, v any, r Range) error {
	return errors.Wrapf(ErrInvalidParameter, "%s %v outside [%v, %v]", what, v, r.Min, r.Max)
}
