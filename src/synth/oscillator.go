package synth

import (
	"math"
	"math/rand"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"tjweldon/lofi/src/util"
)

// Oscillator is a sine at an integer frequency. Frequencies at or above
// Nyquist give silence.
func Oscillator(rate beep.SampleRate, freq int) beep.Streamer {
	osc, err := generators.SinTone(rate, freq)
	if err != nil {
		logger.Ctx("Oscillator").Vol(util.Loud).Log("no tone at", freq, "Hz:", err)
		return beep.Silence(-1)
	}
	return osc
}

// phasor streams a waveform whose frequency may change every sample
type phasor struct {
	rate  beep.SampleRate
	freq  func(sampleIdx int) float64
	wave  func(phase float64) float64
	phase float64
	pos   int
}

func (p *phasor) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		v := p.wave(p.phase)
		samples[i] = [2]float64{v, v}
		p.phase += p.freq(p.pos) / float64(p.rate)
		p.phase -= math.Floor(p.phase)
		p.pos++
	}
	return len(samples), true
}

func (p *phasor) Err() error { return nil }

func sine(phase float64) float64 { return math.Sin(2 * math.Pi * phase) }

func triangle(phase float64) float64 {
	return 1 - 4*math.Abs(phase-0.5)
}

// Triangle is a fixed-pitch triangle wave
func Triangle(rate beep.SampleRate, hz float64) beep.Streamer {
	// start at the zero crossing
	return &phasor{rate: rate, freq: func(int) float64 { return hz }, wave: triangle, phase: 0.25}
}

// Sweep is a sine that glides exponentially from `from` Hz to `to` Hz over
// `samples` samples, then holds `to`.
func Sweep(rate beep.SampleRate, from, to float64, samples int) beep.Streamer {
	ratio := to / from
	return &phasor{
		rate: rate,
		wave: sine,
		freq: func(i int) float64 {
			if i >= samples {
				return to
			}
			return from * math.Pow(ratio, float64(i)/float64(max(1, samples)))
		},
	}
}

// WhiteNoise streams uniform noise in [-1, 1)
func WhiteNoise(rng *rand.Rand) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i][0] = rng.Float64()*2 - 1
			samples[i][1] = rng.Float64()*2 - 1
		}
		return len(samples), true
	})
}

// brown integrates white noise with a leak so it never wanders off
type brown struct {
	rng  *rand.Rand
	last [2]float64
}

func (b *brown) next(ch int) float64 {
	white := b.rng.Float64()*2 - 1
	b.last[ch] = (b.last[ch] + 0.02*white) / 1.02
	return b.last[ch] * 3.5
}
