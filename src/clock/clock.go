package clock

import (
	"sync/atomic"
	"time"
)

// Tempo is the tempo shared by every track: beats per minute and the
// amount of swing applied to off-beat sixteenths.
type Tempo struct {
	BPM   int
	Swing float64
}

// Quantum returns the duration of a single beat
func (t Tempo) Quantum() time.Duration {
	return time.Minute / time.Duration(t.BPM)
}

// Subdivision is the grid a track advances on
type Subdivision int

const (
	// Sixteenth is the percussion grid, 16 steps per measure
	Sixteenth Subdivision = iota
	// Measure is the harmonic grid, one slot per 4/4 measure
	Measure
)

// StepsPerMeasure is how many percussion steps make up one harmonic step
const StepsPerMeasure = 16

func (s Subdivision) String() string {
	switch s {
	case Sixteenth:
		return "16n"
	case Measure:
		return "1m"
	default:
		return "?"
	}
}

// NoteValue is a note length expressed as a fraction of a whole note
type NoteValue int

const (
	WholeNote     NoteValue = 1
	HalfNote      NoteValue = 2
	QuarterNote   NoteValue = 4
	EighthNote    NoteValue = 8
	SixteenthNote NoteValue = 16
)

// Clock turns the current Tempo into absolute tick times. The tempo is
// swapped atomically so a reader always sees a BPM and swing that were set
// together.
type Clock struct {
	tempo atomic.Pointer[Tempo]
}

func New(t Tempo) *Clock {
	c := &Clock{}
	c.SetTempo(t)
	return c
}

// Tempo returns a snapshot of the current tempo
func (c *Clock) Tempo() Tempo {
	return *c.tempo.Load()
}

// SetTempo replaces the tempo. Ticks already computed keep their time;
// only later calls to NextTick see the change.
func (c *Clock) SetTempo(t Tempo) {
	c.tempo.Store(&t)
}

// SetBPM changes the tempo, keeping the swing
func (c *Clock) SetBPM(bpm int) {
	c.update(func(t *Tempo) { t.BPM = bpm })
}

// SetSwing changes the swing, keeping the tempo
func (c *Clock) SetSwing(amount float64) {
	c.update(func(t *Tempo) { t.Swing = amount })
}

// update applies f to the tempo, retrying if another writer got in first
func (c *Clock) update(f func(*Tempo)) {
	for {
		old := c.tempo.Load()
		next := *old
		f(&next)
		if c.tempo.CompareAndSwap(old, &next) {
			return
		}
	}
}

// StepDuration is the unswung length of one step of the given grid
func (c *Clock) StepDuration(sub Subdivision) time.Duration {
	return stepDuration(c.Tempo(), sub)
}

// NoteLength is how long a note of value v lasts at the current tempo
func (c *Clock) NoteLength(v NoteValue) time.Duration {
	return c.Tempo().Quantum() * 4 / time.Duration(v)
}

// NextTick schedules the tick at phase on the given grid. lastGrid is the
// unswung time of the previous tick; the returned grid is the unswung time
// of this one and at is when it actually fires. Odd sixteenths are pushed
// back by Swing sixteenths. Measures never swing.
func (c *Clock) NextTick(lastGrid time.Duration, phase int, sub Subdivision) (grid, at time.Duration) {
	t := c.Tempo()
	grid = lastGrid + stepDuration(t, sub)
	return grid, grid + swingOffset(t, phase, sub)
}

// FirstTick is NextTick for the very first tick of a run, placed exactly at
// origin.
func (c *Clock) FirstTick(origin time.Duration, sub Subdivision) (grid, at time.Duration) {
	return origin, origin + swingOffset(c.Tempo(), 0, sub)
}

func stepDuration(t Tempo, sub Subdivision) time.Duration {
	sixteenth := t.Quantum() / 4
	if sub == Measure {
		return sixteenth * StepsPerMeasure
	}
	return sixteenth
}

func swingOffset(t Tempo, phase int, sub Subdivision) time.Duration {
	if sub != Sixteenth || phase%2 == 0 || t.Swing <= 0 {
		return 0
	}
	return time.Duration(t.Swing * float64(stepDuration(t, Sixteenth)))
}
