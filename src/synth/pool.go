package synth

import (
	"time"

	"github.com/faiface/beep"
	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/streams"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("synth")

// Options configures a Pool. Zero values fall back to the defaults of the
// stock lo-fi patch.
type Options struct {
	Rate beep.SampleRate
	// Volumes are the starting per-voice levels in dB
	Volumes map[VoiceID]float64
	// FilterCutoff is the master low-pass cutoff in Hz
	FilterCutoff float64
	// Samples replace the synthesised voice with a recorded one-shot
	Samples map[VoiceID]*beep.Buffer
	// QueueSize bounds how many control events may wait for the render thread
	QueueSize int
	// Seed makes the noise voices repeatable
	Seed int64
}

// DefaultVolumes are the stock mix: drums at -6dB with the snare 4dB and
// the hat 14dB under the kick, chords at -12dB, vinyl at -20dB.
func DefaultVolumes() map[VoiceID]float64 {
	return map[VoiceID]float64{
		Kick:   -6,
		Snare:  -10,
		HiHat:  -20,
		Chords: -12,
		Vinyl:  -20,
	}
}

type eventKind int

const (
	evTrigger eventKind = iota
	evNoiseOn
	evNoiseOff
	evCancel
)

type event struct {
	kind     eventKind
	voice    VoiceID
	pitches  []string
	duration time.Duration
	at       time.Duration
}

// channel is one triggered voice: an instrument, the bus its notes are
// scheduled on and the gain stage after it
type channel struct {
	id   VoiceID
	inst Instrument
	bus  *streams.Bus
	gain *streams.Gain
}

// Pool owns every voice and the graph between them and the output:
//
//	kick, snare, hihat, chords -> gain -> reverb -> low-pass -+-> out
//	vinyl noise -> gain -> band-pass -------------------------+
//
// Control calls may come from any goroutine. Triggers are queued for the
// render thread, which is whoever calls Stream (normally the speaker).
// Parameter setters write atomics the graph reads as it renders.
type Pool struct {
	rate  beep.SampleRate
	src   clock.Source
	queue *streams.Queue[event]
	quant streams.Quantiser

	channels  map[VoiceID]*channel
	noise     *vinylNoise
	noiseGain *streams.Gain
	reverb    *streams.Reverb
	filter    *streams.Filter
	out       beep.Streamer
	pos       int
}

func NewPool(src clock.Source, opts Options) *Pool {
	if opts.Rate == 0 {
		opts.Rate = 44100
	}
	if opts.FilterCutoff == 0 {
		opts.FilterCutoff = 800
	}
	if opts.QueueSize == 0 {
		opts.QueueSize = 256
	}
	volumes := DefaultVolumes()
	for id, db := range opts.Volumes {
		volumes[id] = db
	}

	p := &Pool{
		rate:     opts.Rate,
		src:      src,
		queue:    streams.NewQueue[event]("synth.Pool", opts.QueueSize),
		quant:    streams.Quantiser{Rate: opts.Rate},
		channels: make(map[VoiceID]*channel),
	}

	instruments := map[VoiceID]Instrument{
		Kick:   NewKickDrum(opts.Rate),
		Snare:  NewSnareDrum(opts.Rate, opts.Seed+1),
		HiHat:  NewHiHat(opts.Rate, opts.Seed+2),
		Chords: NewPolySynth(opts.Rate),
	}
	for id, buf := range opts.Samples {
		if id == Vinyl || buf == nil {
			continue
		}
		instruments[id] = NewSampler(opts.Rate, buf)
	}

	voiced := make([]beep.Streamer, 0, len(Triggered))
	for _, id := range Triggered {
		bus := &streams.Bus{Name: id.String()}
		ch := &channel{
			id:   id,
			inst: instruments[id],
			bus:  bus,
			gain: streams.NewGain(bus, volumes[id], opts.Rate),
		}
		p.channels[id] = ch
		voiced = append(voiced, ch.gain)
	}

	p.reverb = streams.NewReverb(beep.Mix(voiced...), opts.Rate, 2*time.Second, 0.3)
	p.filter = streams.NewFilter(streams.LowPass, p.reverb, opts.Rate, opts.FilterCutoff, 0.707)

	p.noise = newVinylNoise(opts.Rate, opts.Seed+3)
	p.noiseGain = streams.NewGain(p.noise, volumes[Vinyl], opts.Rate)
	vinyl := streams.NewFilter(streams.BandPass, p.noiseGain, opts.Rate, 2000, 1)

	p.out = beep.Mix(p.filter, vinyl)
	return p
}

// Format is the format the pool renders in, for handing to the speaker
func (p *Pool) Format() beep.Format {
	return beep.Format{SampleRate: p.rate, NumChannels: 2, Precision: 2}
}

// Trigger plays voice id at timeline time at, gated for duration. It never
// blocks and reports nothing back; the note ends on its own.
func (p *Pool) Trigger(id VoiceID, pitches []string, duration, at time.Duration) {
	if _, ok := p.channels[id]; !ok {
		logger.Ctx("Trigger").Vol(util.Loud).Log("not a triggered voice:", id)
		return
	}
	p.queue.Push(event{kind: evTrigger, voice: id, pitches: pitches, duration: duration, at: at})
}

// StartNoise fades the vinyl bed in at timeline time at
func (p *Pool) StartNoise(at time.Duration) {
	p.queue.Push(event{kind: evNoiseOn, at: at})
}

// StopNoise fades the vinyl bed out
func (p *Pool) StopNoise() {
	p.queue.Push(event{kind: evNoiseOff})
}

// CancelPending drops every queued or scheduled note that has not started
// sounding yet
func (p *Pool) CancelPending() {
	p.queue.Push(event{kind: evCancel})
}

// SetVolume sets a voice's level in dB; Vinyl is the noise bed
func (p *Pool) SetVolume(id VoiceID, db float64) {
	if id == Vinyl {
		p.SetNoiseLevel(db)
		return
	}
	if ch, ok := p.channels[id]; ok {
		ch.gain.SetDB(db)
	}
}

// Volume returns a voice's level in dB
func (p *Pool) Volume(id VoiceID) float64 {
	if id == Vinyl {
		return p.NoiseLevel()
	}
	if ch, ok := p.channels[id]; ok {
		return ch.gain.DB()
	}
	return 0
}

func (p *Pool) SetFilterCutoff(hz float64) { p.filter.SetFrequency(hz) }
func (p *Pool) FilterCutoff() float64      { return p.filter.Frequency() }
func (p *Pool) SetNoiseLevel(db float64)   { p.noiseGain.SetDB(db) }
func (p *Pool) NoiseLevel() float64        { return p.noiseGain.DB() }

// Sounding is how many notes are playing or waiting to start on a voice.
// Only meaningful from the render thread, or once rendering has stopped.
func (p *Pool) Sounding(id VoiceID) int {
	ch, ok := p.channels[id]
	if !ok {
		return 0
	}
	return ch.bus.Playing() + ch.bus.Pending()
}

func (p *Pool) handle(ev event) {
	switch ev.kind {
	case evTrigger:
		ch := p.channels[ev.voice]
		var pitches []float64
		if len(ev.pitches) > 0 {
			pitches = ParsePitches(ev.pitches)
			if len(pitches) == 0 {
				return
			}
		}
		start := p.quant.Sample(ev.at)
		if start < p.pos {
			logger.Ctx("handle").Vol(util.Normal).Log(ev.voice, "trigger late by", p.rate.D(p.pos-start))
		}
		ch.bus.Schedule(ch.inst.Note(pitches, ev.duration), start)
	case evNoiseOn:
		p.noise.start(p.quant.Sample(ev.at))
	case evNoiseOff:
		p.noise.stop()
	case evCancel:
		for _, ch := range p.channels {
			ch.bus.CancelPending()
		}
	}
}

// Stream renders the next chunk of the mix. It is the render thread's entry
// point; the first call anchors the timeline to the sample clock.
func (p *Pool) Stream(samples [][2]float64) (n int, ok bool) {
	p.quant.Anchor(p.src.Now(), p.pos)
	p.queue.Drain(p.handle)

	n, ok = p.out.Stream(samples)
	p.pos += n
	return n, ok
}

func (p *Pool) Err() error { return nil }
