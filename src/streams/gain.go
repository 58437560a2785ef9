package streams

import (
	"github.com/faiface/beep"
)

// Gain scales its input by a decibel level that can be changed while the
// graph is running.
type Gain struct {
	Streamer beep.Streamer
	db       *Param
	ramp     ramp
}

func NewGain(s beep.Streamer, db float64, rate beep.SampleRate) *Gain {
	return &Gain{
		Streamer: s,
		db:       NewParam(db),
		ramp:     newRamp(DBToGain(db), rate),
	}
}

// SetDB is safe to call from any goroutine
func (g *Gain) SetDB(db float64) { g.db.Set(db) }
func (g *Gain) DB() float64      { return g.db.Get() }

func (g *Gain) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.Streamer.Stream(samples)
	target := DBToGain(g.db.Get())
	for i := range samples[:n] {
		a := g.ramp.next(target)
		samples[i][0] *= a
		samples[i][1] *= a
	}
	return n, ok
}

func (g *Gain) Err() error { return g.Streamer.Err() }
