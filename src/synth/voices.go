package synth

import (
	"math/rand"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"tjweldon/lofi/src/streams"
)

// VoiceID names one of the fixed set of voices in the pool
type VoiceID int

const (
	Kick VoiceID = iota
	Snare
	HiHat
	Chords
	Vinyl
)

// Triggered lists the voices that play notes, in dispatch order
var Triggered = []VoiceID{Kick, Snare, HiHat, Chords}

func (v VoiceID) String() string {
	switch v {
	case Kick:
		return "kick"
	case Snare:
		return "snare"
	case HiHat:
		return "hihat"
	case Chords:
		return "chords"
	case Vinyl:
		return "vinyl"
	default:
		return "unknown"
	}
}

// Instrument renders one note. pitches is empty for unpitched voices. The
// returned streamer must end on its own.
type Instrument interface {
	Note(pitches []float64, hold time.Duration) beep.Streamer
}

// KickDrum is a sine membrane whose pitch drops Octaves octaves onto Root
// over PitchDecay.
type KickDrum struct {
	Rate       beep.SampleRate
	Root       float64
	Octaves    float64
	PitchDecay time.Duration
	Env        Envelope
}

func NewKickDrum(rate beep.SampleRate) *KickDrum {
	return &KickDrum{
		Rate:       rate,
		Root:       32.7, // C1
		Octaves:    4,
		PitchDecay: 50 * time.Millisecond,
		Env:        Envelope{Attack: time.Millisecond, Decay: 400 * time.Millisecond, Sustain: 0.01, Release: 400 * time.Millisecond},
	}
}

func (k *KickDrum) Note(_ []float64, hold time.Duration) beep.Streamer {
	body := Sweep(k.Rate, k.Root*k.Octaves, k.Root, k.Rate.N(k.PitchDecay))
	return k.Env.Apply(body, k.Rate, hold)
}

// SnareDrum is an enveloped white noise burst
type SnareDrum struct {
	Rate beep.SampleRate
	Env  Envelope
	rng  *rand.Rand
}

func NewSnareDrum(rate beep.SampleRate, seed int64) *SnareDrum {
	return &SnareDrum{
		Rate: rate,
		Env:  Envelope{Attack: time.Millisecond, Decay: 200 * time.Millisecond, Release: 100 * time.Millisecond},
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (s *SnareDrum) Note(_ []float64, hold time.Duration) beep.Streamer {
	return s.Env.Apply(WhiteNoise(s.rng), s.Rate, hold)
}

// metallic partial ratios of a struck plate
var hatPartials = []float64{1, 1.342, 1.2312, 1.6532, 1.9523, 2.1523}

// HiHatDrum layers inharmonic sine partials over noise, with a very short
// envelope.
type HiHatDrum struct {
	Rate        beep.SampleRate
	Fundamental float64
	Harmonicity float64
	Env         Envelope
	rng         *rand.Rand
}

func NewHiHat(rate beep.SampleRate, seed int64) *HiHatDrum {
	return &HiHatDrum{
		Rate:        rate,
		Fundamental: 1046.5, // C6
		Harmonicity: 5.1,
		Env:         Envelope{Attack: time.Millisecond, Decay: 50 * time.Millisecond, Release: 10 * time.Millisecond},
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (h *HiHatDrum) Note(_ []float64, hold time.Duration) beep.Streamer {
	layers := []beep.Streamer{WhiteNoise(h.rng)}
	for _, ratio := range hatPartials {
		layers = append(layers, Oscillator(h.Rate, int(h.Fundamental*h.Harmonicity*ratio/4)))
	}
	mixed := &effects.Volume{
		Streamer: beep.Mix(layers...),
		Base:     streams.DBBase,
		Volume:   -17, // roughly 1/len(layers)
	}
	return h.Env.Apply(mixed, h.Rate, hold)
}

// PolySynth plays every pitch of a chord on its own triangle voice
type PolySynth struct {
	Rate beep.SampleRate
	Env  Envelope
}

func NewPolySynth(rate beep.SampleRate) *PolySynth {
	return &PolySynth{
		Rate: rate,
		Env:  Envelope{Attack: 100 * time.Millisecond, Decay: 300 * time.Millisecond, Sustain: 0.4, Release: 1500 * time.Millisecond},
	}
}

func (p *PolySynth) Note(pitches []float64, hold time.Duration) beep.Streamer {
	if len(pitches) == 0 {
		return beep.Silence(0)
	}
	voices := make([]beep.Streamer, 0, len(pitches))
	for _, hz := range pitches {
		voices = append(voices, p.Env.Apply(Triangle(p.Rate, hz), p.Rate, hold))
	}
	return &effects.Volume{Streamer: beep.Mix(voices...), Base: streams.DBBase, Volume: -12}
}

// Sampler plays a recorded one-shot in place of a synthesised voice. The
// sample is cut at the note length with a short fade.
type Sampler struct {
	Rate beep.SampleRate
	Buf  *beep.Buffer
	Env  Envelope
}

func NewSampler(rate beep.SampleRate, buf *beep.Buffer) *Sampler {
	return &Sampler{
		Rate: rate,
		Buf:  buf,
		Env:  Envelope{Sustain: 1, Release: 30 * time.Millisecond},
	}
}

func (s *Sampler) Note(_ []float64, hold time.Duration) beep.Streamer {
	return s.Env.Apply(s.Buf.Streamer(0, s.Buf.Len()), s.Rate, hold)
}

// vinylNoise is the continuous background bed. It fades in from the sample
// it is started at and fades out when stopped; it never ends.
type vinylNoise struct {
	brown
	fade    int
	pos     int
	startAt int
	on      bool
	level   float64
}

func newVinylNoise(rate beep.SampleRate, seed int64) *vinylNoise {
	return &vinylNoise{
		brown: brown{rng: rand.New(rand.NewSource(seed))},
		fade:  max(1, rate.N(streams.RampTime)),
	}
}

func (v *vinylNoise) start(at int) { v.on, v.startAt = true, at }
func (v *vinylNoise) stop()        { v.on = false }

func (v *vinylNoise) Stream(samples [][2]float64) (n int, ok bool) {
	step := 1 / float64(v.fade)
	for i := range samples {
		if v.on && v.pos >= v.startAt {
			v.level = min(1, v.level+step)
		} else {
			v.level = max(0, v.level-step)
		}
		if v.level == 0 {
			samples[i] = [2]float64{}
		} else {
			samples[i] = [2]float64{v.next(0) * v.level, v.next(1) * v.level}
		}
		v.pos++
	}
	return len(samples), true
}

func (v *vinylNoise) Err() error { return nil }
