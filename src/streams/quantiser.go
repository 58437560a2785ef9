package streams

import (
	"time"

	"github.com/faiface/beep"
	"tjweldon/lofi/src/util"
)

// Quantiser snaps times on the transport timeline to absolute sample
// positions. It is anchored once, pairing a timeline time with the sample
// that was being rendered at that moment; every later time is converted
// relative to that pair, so tick spacing survives the trip into the sample
// domain exactly.
type Quantiser struct {
	Rate beep.SampleRate

	anchored bool
	at       time.Duration
	sample   int
}

// Anchor pairs the timeline time now with the sample position pos. Only the
// first call has any effect.
func (q *Quantiser) Anchor(now time.Duration, pos int) {
	if q.anchored {
		return
	}
	q.anchored = true
	q.at = now
	q.sample = pos
	logger.Ctx("Quantiser").Vol(util.Normal).Log("anchored", now, "to sample", pos)
}

func (q *Quantiser) Anchored() bool { return q.anchored }

// Sample returns the absolute sample at which timeline time t falls
func (q *Quantiser) Sample(t time.Duration) int {
	return q.sample + q.Rate.N(t-q.at)
}
