package streams

import (
	"github.com/faiface/beep"
	"tjweldon/lofi/src/util"
)

// Bus is a mixer whose inputs start at a chosen sample rather than straight
// away. Sounds are handed to it with an absolute start sample; once their
// start falls inside the chunk being rendered they move into a beep.Mixer,
// offset by the right amount of silence. A Bus never drains: with nothing
// playing it streams silence.
//
// Bus is not safe for concurrent use. Only the render thread touches it.
type Bus struct {
	Name string

	mixer   beep.Mixer
	pending []scheduled
	pos     int
}

type scheduled struct {
	start int
	sound beep.Streamer
}

// Schedule adds sound to the bus, starting at the absolute sample start. A
// start in the past plays from the next rendered sample.
func (b *Bus) Schedule(sound beep.Streamer, start int) {
	b.pending = append(b.pending, scheduled{start: start, sound: sound})
}

// CancelPending drops every sound that has not started yet. Sounds already
// playing ring out.
func (b *Bus) CancelPending() {
	if len(b.pending) > 0 {
		logger.Ctx(b.Name).Vol(util.Quiet).Log("cancelling", len(b.pending), "pending sounds")
	}
	b.pending = b.pending[:0]
}

// Playing is how many sounds are currently sounding
func (b *Bus) Playing() int { return b.mixer.Len() }

// Pending is how many sounds are waiting for their start sample
func (b *Bus) Pending() int { return len(b.pending) }

// Position is the absolute sample the next Stream call starts at
func (b *Bus) Position() int { return b.pos }

func (b *Bus) Stream(samples [][2]float64) (n int, ok bool) {
	end := b.pos + len(samples)
	kept := b.pending[:0]
	for _, s := range b.pending {
		if s.start >= end {
			kept = append(kept, s)
			continue
		}
		b.mixer.Add(beep.Seq(beep.Silence(max(0, s.start-b.pos)), s.sound))
	}
	b.pending = kept

	n, ok = b.mixer.Stream(samples)
	b.pos += n
	return n, ok
}

func (b *Bus) Err() error { return nil }
