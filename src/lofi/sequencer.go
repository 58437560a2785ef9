// Package lofi is the beat maker's control surface. A Sequencer ties the
// transport to the voice pool and is the only thing a front end talks to:
// it validates every change, applies it live, and tells subscribers where
// playback has got to.
package lofi

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"tjweldon/lofi/src/chords"
	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/sequencer"
	"tjweldon/lofi/src/synth"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("lofi")

// PlaybackState is the position published on every start, stop and tick
type PlaybackState = sequencer.PlaybackState

// None is the step and slot reported while stopped
const None = sequencer.None

// CustomPreset is the preset name reported once a slot has been edited
const CustomPreset = "Custom"

// Engine is the voice pool as the sequencer drives it
type Engine interface {
	sequencer.Voices
	SetVolume(id synth.VoiceID, db float64)
	SetFilterCutoff(hz float64)
}

// Options are the sequencer's starting values. They are validated like any
// other change.
type Options struct {
	Tempo   clock.Tempo
	Filter  float64
	Volumes map[Track]float64
	Pattern sequencer.StepPattern

	Chords  sequencer.ChordLookup
	Presets chords.Presets
	// Preset names the progression to start with
	Preset string

	Source    clock.Source
	Lookahead time.Duration
}

// Sequencer is safe for use from any goroutine. None of its methods block
// on audio.
type Sequencer struct {
	clock       *clock.Clock
	progression *sequencer.Progression
	transport   *sequencer.Transport
	engine      Engine
	presets     chords.Presets
	subs        subscribers

	mu         sync.Mutex
	presetName string
	filter     float64
	volumes    map[Track]float64
}

func New(engine Engine, opts Options) (*Sequencer, error) {
	if opts.Source == nil {
		opts.Source = clock.Wall()
	}
	if opts.Chords == nil {
		opts.Chords = chords.Default
	}
	if opts.Presets == nil {
		opts.Presets = chords.DefaultPresets()
	}
	if opts.Lookahead < 0 || opts.Lookahead > MaxLookahead {
		return nil, errors.Wrapf(ErrInvalidParameter, "lookahead %v outside [0, %v]", opts.Lookahead, MaxLookahead)
	}

	s := &Sequencer{
		clock:       clock.New(clock.Tempo{BPM: int(TempoRange.Min)}),
		progression: sequencer.NewProgression([sequencer.Slots]string{}),
		engine:      engine,
		presets:     opts.Presets,
		volumes:     make(map[Track]float64),
	}
	s.transport = sequencer.NewTransport(
		s.clock,
		opts.Source,
		engine,
		&sequencer.PercussionTrack{Pattern: opts.Pattern, Clock: s.clock},
		&sequencer.HarmonicTrack{Progression: s.progression, Chords: opts.Chords, Clock: s.clock},
		opts.Lookahead,
		s.subs.publish,
	)

	if err := s.SetTempo(opts.Tempo.BPM); err != nil {
		return nil, err
	}
	if err := s.SetSwing(opts.Tempo.Swing); err != nil {
		return nil, err
	}
	if err := s.SetFilterCutoff(opts.Filter); err != nil {
		return nil, err
	}
	for _, t := range Tracks {
		level, ok := opts.Volumes[t]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidParameter, "no starting level for %s", t)
		}
		if err := s.SetTrackVolume(t, level); err != nil {
			return nil, err
		}
	}
	if err := s.LoadNamedPreset(opts.Preset); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins playback from the top; a no-op while running
func (s *Sequencer) Start() { s.transport.Start() }

// Stop halts playback and resets the position; a no-op while stopped
func (s *Sequencer) Stop() { s.transport.Stop() }

// Toggle starts a stopped sequencer and stops a running one
func (s *Sequencer) Toggle() {
	if s.transport.Running() {
		s.Stop()
	} else {
		s.Start()
	}
}

func (s *Sequencer) State() PlaybackState { return s.transport.State() }

func (s *Sequencer) Tempo() clock.Tempo { return s.clock.Tempo() }

// SetTempo changes the BPM. Ticks already handed to the voices keep their
// time; the rest follow the new tempo.
func (s *Sequencer) SetTempo(bpm int) error {
	if !TempoRange.Contains(float64(bpm)) {
		return invalid("tempo", bpm, TempoRange)
	}
	s.clock.SetBPM(bpm)
	s.transport.Retime()
	logger.Ctx("SetTempo").Vol(util.Normal).Log(bpm, "bpm")
	return nil
}

// SetSwing changes how far off-beat sixteenths are pushed back, as a
// fraction of a sixteenth
func (s *Sequencer) SetSwing(amount float64) error {
	if !SwingRange.Contains(amount) {
		return invalid("swing", amount, SwingRange)
	}
	s.clock.SetSwing(amount)
	s.transport.Retime()
	logger.Ctx("SetSwing").Vol(util.Normal).Log(amount)
	return nil
}

func (s *Sequencer) FilterCutoff() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilterCutoff moves the master low-pass
func (s *Sequencer) SetFilterCutoff(hz float64) error {
	if !FilterRange.Contains(hz) {
		return invalid("filter cutoff", hz, FilterRange)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = hz
	s.engine.SetFilterCutoff(hz)
	return nil
}

func (s *Sequencer) TrackVolume(t Track) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volumes[t]
}

// SetTrackVolume sets a track's level in dB. Each track has its own range,
// see Track.Range.
func (s *Sequencer) SetTrackVolume(t Track, db float64) error {
	voices := t.voices()
	if voices == nil {
		return errors.Wrapf(ErrInvalidParameter, "no track %d", int(t))
	}
	if r := t.Range(); !r.Contains(db) {
		return invalid(t.String()+" volume", db, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumes[t] = db
	for _, v := range voices {
		s.engine.SetVolume(v.voice, db+v.trim)
	}
	return nil
}

// Progression returns the four chord slots
func (s *Sequencer) Progression() [sequencer.Slots]string { return s.progression.Slots() }

// SetPatternSlot puts chord in one slot. It sounds the next time the slot
// comes round, even if the slot has already played this cycle.
func (s *Sequencer) SetPatternSlot(slot int, chord string) error {
	if slot < 0 || slot >= sequencer.Slots {
		return invalid("slot", slot, Range{0, sequencer.Slots - 1})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progression.SetSlot(slot, chord)
	s.presetName = CustomPreset
	return nil
}

// LoadPreset replaces all four slots at once. The preset name follows
// whichever stored preset has the same chords, if any.
func (s *Sequencer) LoadPreset(slots []string) error {
	if len(slots) != sequencer.Slots {
		return errors.Wrapf(ErrInvalidParameter, "progression has %d chords, want %d", len(slots), sequencer.Slots)
	}
	progression := [sequencer.Slots]string(slots)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.progression.Replace(progression)
	s.presetName = CustomPreset
	for _, p := range s.presets {
		if p.Slots == progression {
			s.presetName = p.Name
			break
		}
	}
	return nil
}

// LoadNamedPreset loads a progression from the preset store by name
func (s *Sequencer) LoadNamedPreset(name string) error {
	p, ok := s.presets.Find(name)
	if !ok {
		return errors.Wrapf(ErrUnknownPreset, "%q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progression.Replace(p.Slots)
	s.presetName = p.Name
	logger.Ctx("LoadNamedPreset").Vol(util.Normal).Log(p.Name, p.Slots)
	return nil
}

// PresetName is the loaded preset, or CustomPreset once the progression has
// been edited
func (s *Sequencer) PresetName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presetName
}

// Presets lists the preset store
func (s *Sequencer) Presets() chords.Presets { return s.presets }

// Subscribe returns a channel of playback states and a func that ends the
// subscription and closes the channel. A slow reader misses intermediate
// states but always gets the newest one.
func (s *Sequencer) Subscribe() (<-chan PlaybackState, func()) {
	return s.subs.add(subscriberBuffer)
}
