package streams

import (
	"math"

	"github.com/faiface/beep"
)

type FilterKind int

const (
	LowPass FilterKind = iota
	BandPass
)

// Filter is a stereo biquad (RBJ cookbook) whose centre/cutoff frequency can
// be moved live. Coefficients are only recomputed while the frequency is
// gliding.
type Filter struct {
	Streamer beep.Streamer
	Kind     FilterKind
	Q        float64

	rate     beep.SampleRate
	freq     *Param
	ramp     ramp
	computed float64
	coef     biquad
	state    [2]biquadState
}

type biquad struct {
	b0, b1, b2, a1, a2 float64
}

type biquadState struct {
	x1, x2, y1, y2 float64
}

func NewFilter(kind FilterKind, s beep.Streamer, rate beep.SampleRate, freq, q float64) *Filter {
	f := &Filter{
		Streamer: s,
		Kind:     kind,
		Q:        q,
		rate:     rate,
		freq:     NewParam(freq),
		ramp:     newRamp(freq, rate),
	}
	f.compute(freq)
	return f
}

// SetFrequency is safe to call from any goroutine
func (f *Filter) SetFrequency(hz float64) { f.freq.Set(hz) }
func (f *Filter) Frequency() float64      { return f.freq.Get() }

func (f *Filter) compute(requested float64) {
	nyquist := float64(f.rate) / 2
	hz := math.Max(1, math.Min(requested, nyquist*0.99))

	w0 := 2 * math.Pi * hz / float64(f.rate)
	cos, sin := math.Cos(w0), math.Sin(w0)
	alpha := sin / (2 * f.Q)
	a0 := 1 + alpha

	var c biquad
	switch f.Kind {
	case BandPass:
		c = biquad{b0: alpha, b1: 0, b2: -alpha}
	default:
		c = biquad{b0: (1 - cos) / 2, b1: 1 - cos, b2: (1 - cos) / 2}
	}
	c.a1 = -2 * cos
	c.a2 = 1 - alpha

	f.coef = biquad{
		b0: c.b0 / a0, b1: c.b1 / a0, b2: c.b2 / a0,
		a1: c.a1 / a0, a2: c.a2 / a0,
	}
	f.computed = requested
}

func (f *Filter) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.Streamer.Stream(samples)
	target := f.freq.Get()
	for i := range samples[:n] {
		if hz := f.ramp.next(target); hz != f.computed {
			f.compute(hz)
		}
		for ch := 0; ch < 2; ch++ {
			s := &f.state[ch]
			x := samples[i][ch]
			y := f.coef.b0*x + f.coef.b1*s.x1 + f.coef.b2*s.x2 - f.coef.a1*s.y1 - f.coef.a2*s.y2
			s.x2, s.x1 = s.x1, x
			s.y2, s.y1 = s.y1, y
			samples[i][ch] = y
		}
	}
	return n, ok
}

func (f *Filter) Err() error { return f.Streamer.Err() }
