// Package streams holds the signal graph nodes the voice pool is wired from.
// Every node is a beep.Streamer. Nodes with live parameters read them from
// atomics and glide towards new values over a short ramp, so the render
// thread never needs a lock and a parameter jump never clicks.
package streams

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("streams")

// RampTime is how long a live parameter takes to reach a new value
const RampTime = 20 * time.Millisecond

// DBToGain converts decibels to a linear amplitude factor
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// DBBase is the effects.Volume base that makes Volume a decibel value
var DBBase = math.Pow(10, 1.0/20)

// Param is a float64 that one goroutine writes and the render thread reads
type Param struct {
	bits atomic.Uint64
}

func NewParam(v float64) *Param {
	p := &Param{}
	p.Set(v)
	return p
}

func (p *Param) Set(v float64) { p.bits.Store(math.Float64bits(v)) }
func (p *Param) Get() float64  { return math.Float64frombits(p.bits.Load()) }

// ramp glides linearly from its current value to a new target over n samples
type ramp struct {
	cur, target, inc float64
	n, left          int
}

func newRamp(v float64, rate beep.SampleRate) ramp {
	return ramp{cur: v, target: v, n: max(1, rate.N(RampTime))}
}

func (r *ramp) next(target float64) float64 {
	if target != r.target {
		r.target = target
		r.left = r.n
		r.inc = (target - r.cur) / float64(r.n)
	}
	if r.left > 0 {
		r.cur += r.inc
		r.left--
		if r.left == 0 {
			r.cur = r.target
		}
	}
	return r.cur
}
