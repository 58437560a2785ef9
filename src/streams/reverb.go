package streams

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

// tunings from freeverb, in samples at 44.1kHz
var (
	combTunings    = []int{1116, 1188, 1277, 1356}
	allpassTunings = []int{556, 441}
)

// stereoSpread detunes the right channel's delay lines
const stereoSpread = 23

// Reverb is a small Schroeder reverb: parallel damped combs into series
// allpasses, per channel. Decay is the RT60 of the combs.
type Reverb struct {
	Streamer beep.Streamer
	Wet      float64

	combs     [2][]comb
	allpasses [2][]allpass
}

type comb struct {
	buf      []float64
	i        int
	feedback float64
	damp     float64
	store    float64
}

type allpass struct {
	buf []float64
	i   int
}

func NewReverb(s beep.Streamer, rate beep.SampleRate, decay time.Duration, wet float64) *Reverb {
	r := &Reverb{Streamer: s, Wet: wet}
	scale := float64(rate) / 44100

	for ch := 0; ch < 2; ch++ {
		for _, tuning := range combTunings {
			n := max(1, int(float64(tuning+ch*stereoSpread)*scale))
			// gain that decays 60dB after `decay`
			fb := math.Pow(10, -3*float64(n)/(decay.Seconds()*float64(rate)))
			r.combs[ch] = append(r.combs[ch], comb{buf: make([]float64, n), feedback: fb, damp: 0.2})
		}
		for _, tuning := range allpassTunings {
			n := max(1, int(float64(tuning+ch*stereoSpread)*scale))
			r.allpasses[ch] = append(r.allpasses[ch], allpass{buf: make([]float64, n)})
		}
	}
	return r
}

func (c *comb) process(x float64) float64 {
	y := c.buf[c.i]
	c.store = y*(1-c.damp) + c.store*c.damp
	c.buf[c.i] = x + c.store*c.feedback
	c.i = (c.i + 1) % len(c.buf)
	return y
}

func (a *allpass) process(x float64) float64 {
	const g = 0.5
	delayed := a.buf[a.i]
	y := -x + delayed
	a.buf[a.i] = x + delayed*g
	a.i = (a.i + 1) % len(a.buf)
	return y
}

func (r *Reverb) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = r.Streamer.Stream(samples)
	for i := range samples[:n] {
		for ch := 0; ch < 2; ch++ {
			dry := samples[i][ch]
			var wet float64
			for c := range r.combs[ch] {
				wet += r.combs[ch][c].process(dry)
			}
			wet /= float64(len(r.combs[ch]))
			for a := range r.allpasses[ch] {
				wet = r.allpasses[ch][a].process(wet)
			}
			samples[i][ch] = dry*(1-r.Wet) + wet*r.Wet
		}
	}
	return n, ok
}

func (r *Reverb) Err() error { return r.Streamer.Err() }
