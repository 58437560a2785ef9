package synth

import (
	"time"

	"github.com/faiface/beep"
)

// volumeCurve multiplies its input by curve(sampleIdx), where sampleIdx
// counts from the first sample it ever streamed.
type volumeCurve struct {
	Streamer beep.Streamer
	curve    func(sampleIdx int) (volume float64)
	pos      int
}

func (vc *volumeCurve) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = vc.Streamer.Stream(samples)
	for i := range samples[:n] {
		gain := vc.curve(vc.pos)
		samples[i][0] *= gain
		samples[i][1] *= gain
		vc.pos++
	}
	return n, ok
}

func (vc *volumeCurve) Err() error { return vc.Streamer.Err() }

// Envelope is a linear ADSR. The gate is held for the note's duration, then
// released from wherever the envelope had got to.
type Envelope struct {
	Attack, Decay time.Duration
	Sustain       float64
	Release       time.Duration
}

type adsr struct {
	attack, decay, gate, release int
	sustain                      float64
}

func (c adsr) held(i int) float64 {
	if i < c.attack {
		return float64(i) / float64(c.attack)
	}
	i -= c.attack
	if i < c.decay {
		return 1 - (1-c.sustain)*float64(i)/float64(c.decay)
	}
	return c.sustain
}

func (c adsr) level(i int) float64 {
	if i < c.gate {
		return c.held(i)
	}
	r := i - c.gate
	if r >= c.release {
		return 0
	}
	return c.held(c.gate) * (1 - float64(r)/float64(c.release))
}

// Length is how long a note held for hold lasts, release included
func (e Envelope) Length(hold time.Duration) time.Duration {
	return hold + e.Release
}

// Apply shapes s with the envelope, gating it for hold, and cuts it off once
// the release has finished.
func (e Envelope) Apply(s beep.Streamer, rate beep.SampleRate, hold time.Duration) beep.Streamer {
	c := adsr{
		attack:  rate.N(e.Attack),
		decay:   rate.N(e.Decay),
		gate:    rate.N(hold),
		release: max(1, rate.N(e.Release)),
		sustain: e.Sustain,
	}
	return beep.Take(rate.N(e.Length(hold)), &volumeCurve{Streamer: s, curve: c.level})
}
