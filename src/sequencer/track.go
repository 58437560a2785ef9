package sequencer

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/synth"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("sequencer")

const (
	// Steps is the length of the percussion grid
	Steps = clock.StepsPerMeasure
	// Slots is the length of the harmonic grid
	Slots = 4
)

// FireCommand tells the voice pool to play a voice. At is the tick's time on
// the timeline, never the time the command happened to be processed.
type FireCommand struct {
	Voice    synth.VoiceID
	Pitches  []string
	Duration time.Duration
	At       time.Duration
}

func (fc FireCommand) String() string {
	if len(fc.Pitches) == 0 {
		return fmt.Sprintf("%s@%v", fc.Voice, fc.At)
	}
	return fmt.Sprintf("%s%v@%v", fc.Voice, fc.Pitches, fc.At)
}

// StepPattern gates the three percussion voices on each of the 16 steps
type StepPattern struct {
	Kick, Snare, HiHat [Steps]bool
}

// ParseSteps reads a 16 character pattern such as "1000100010001000". Hits
// may be written 1 or x, rests 0 or '.'.
func ParseSteps(s string) (steps [Steps]bool, err error) {
	if len(s) != Steps {
		return steps, errors.Errorf("pattern %q: want %d steps, got %d", s, Steps, len(s))
	}
	for i, c := range s {
		switch c {
		case '1', 'x', 'X':
			steps[i] = true
		case '0', '.':
		default:
			return steps, errors.Errorf("pattern %q: bad step %q at %d", s, c, i)
		}
	}
	return steps, nil
}

// FormatSteps is the inverse of ParseSteps
func FormatSteps(steps [Steps]bool) string {
	var b strings.Builder
	for _, on := range steps {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// PercussionTrack plays the step pattern on the sixteenth grid
type PercussionTrack struct {
	Pattern StepPattern
	Clock   *clock.Clock
}

// OnTick returns a command for every voice that hits on step, in the order
// kick, snare, hihat.
func (p *PercussionTrack) OnTick(step int, at time.Duration) (cmds []FireCommand) {
	hits := []struct {
		voice synth.VoiceID
		on    bool
		note  clock.NoteValue
	}{
		{synth.Kick, p.Pattern.Kick[step], clock.EighthNote},
		{synth.Snare, p.Pattern.Snare[step], clock.EighthNote},
		{synth.HiHat, p.Pattern.HiHat[step], clock.SixteenthNote},
	}
	for _, h := range hits {
		if h.on {
			cmds = append(cmds, FireCommand{Voice: h.voice, Duration: p.Clock.NoteLength(h.note), At: at})
		}
	}
	return cmds
}

// ChordLookup resolves a chord name to the pitches it is voiced with. An
// unknown name resolves to nothing.
type ChordLookup interface {
	Resolve(chord string) []string
}

// Progression is the four chord slots of the harmonic track. Reads and
// writes may come from any goroutine; a reader always sees a whole
// progression.
type Progression struct {
	slots atomic.Pointer[[Slots]string]
}

func NewProgression(slots [Slots]string) *Progression {
	p := &Progression{}
	p.Replace(slots)
	return p
}

// Slots returns a copy of all four slots
func (p *Progression) Slots() [Slots]string { return *p.slots.Load() }

func (p *Progression) Slot(i int) string { return p.slots.Load()[i] }

// SetSlot replaces one slot, leaving the others as they are
func (p *Progression) SetSlot(i int, chord string) {
	for {
		old := p.slots.Load()
		next := *old
		next[i] = chord
		if p.slots.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Replace swaps in a whole new progression at once
func (p *Progression) Replace(slots [Slots]string) {
	p.slots.Store(&slots)
}

// HarmonicTrack plays the progression one slot per measure
type HarmonicTrack struct {
	Progression *Progression
	Chords      ChordLookup
	Clock       *clock.Clock
}

// OnTick returns the chord command for slot, or nothing when the slot's
// chord does not resolve to any pitches.
func (h *HarmonicTrack) OnTick(slot int, at time.Duration) []FireCommand {
	chord := h.Progression.Slot(slot)
	pitches := h.Chords.Resolve(chord)
	if len(pitches) == 0 {
		logger.Ctx("HarmonicTrack").Vol(util.Quiet).Logf("slot %d: %q has no pitches, skipping", slot, chord)
		return nil
	}
	return []FireCommand{{
		Voice:    synth.Chords,
		Pitches:  pitches,
		Duration: h.Clock.NoteLength(clock.HalfNote),
		At:       at,
	}}
}
