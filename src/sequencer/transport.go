package sequencer

import (
	"fmt"
	"sync"
	"time"

	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/synth"
	"tjweldon/lofi/src/util"
)

// None is the position reported while the transport is stopped
const None = -1

// PlaybackState is what the transport publishes on every start, stop and
// tick
type PlaybackState struct {
	Running bool
	Step    int
	Slot    int
}

// Stopped is the state before the first start and after every stop
var Stopped = PlaybackState{Running: false, Step: None, Slot: None}

func (ps PlaybackState) String() string {
	if !ps.Running {
		return "stopped"
	}
	return fmt.Sprintf("running step=%d slot=%d", ps.Step, ps.Slot)
}

// Voices is the transport's view of the voice pool. None of these may
// block.
type Voices interface {
	Trigger(id synth.VoiceID, pitches []string, duration, at time.Duration)
	StartNoise(at time.Duration)
	StopNoise()
	CancelPending()
}

// Transport runs the percussion and harmonic tracks off one clock. It is
// either stopped or running; starting always begins at step 0 of slot 0.
//
// While running a single goroutine walks the tick grid. Each tick is
// processed Lookahead before its time so that the voice pool gets the
// command while there is still time to place it exactly.
type Transport struct {
	Percussion *PercussionTrack
	Harmonic   *HarmonicTrack

	clock     *clock.Clock
	src       clock.Source
	voices    Voices
	lookahead time.Duration
	publish   func(PlaybackState)

	mu        sync.Mutex
	running   bool
	gen       int
	stop      chan struct{}
	interrupt chan struct{}
	state     PlaybackState

	// the tick waiting to be dispatched
	step, slot int
	fired      int
	origin     time.Duration
	lastGrid   time.Duration
}

// NewTransport wires the tracks to the voices. publish is called with every
// new PlaybackState, in order, while the transport's lock is held, so it
// must not block or call back into the transport.
func NewTransport(
	c *clock.Clock,
	src clock.Source,
	voices Voices,
	percussion *PercussionTrack,
	harmonic *HarmonicTrack,
	lookahead time.Duration,
	publish func(PlaybackState),
) *Transport {
	if publish == nil {
		publish = func(PlaybackState) {}
	}
	return &Transport{
		Percussion: percussion,
		Harmonic:   harmonic,
		clock:      c,
		src:        src,
		voices:     voices,
		lookahead:  lookahead,
		publish:    publish,
		state:      Stopped,
	}
}

// State returns the last published PlaybackState
func (t *Transport) State() PlaybackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Start begins playback from the top of the pattern. Starting a running
// transport does nothing.
func (t *Transport) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	logger := logger.Ctx("Transport.Start").Vol(util.Normal)

	t.running = true
	t.gen++
	t.stop = make(chan struct{})
	t.interrupt = make(chan struct{}, 1)
	t.step, t.slot, t.fired = 0, 0, 0
	t.origin = t.src.Now() + t.lookahead
	t.lastGrid = t.origin

	t.voices.StartNoise(t.origin)
	t.setState(PlaybackState{Running: true, Step: None, Slot: None})
	logger.Log("starting at", t.origin, "tempo", t.clock.Tempo())

	go t.run(t.gen, t.stop, t.interrupt)
}

// Stop halts playback and resets the position. When Stop returns no tick of
// the stopped run will fire, and notes that had been handed to the voices
// but not yet started are cancelled. Stopping a stopped transport does
// nothing.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}

	t.running = false
	t.gen++
	close(t.stop)
	t.step, t.slot, t.fired = 0, 0, 0

	t.voices.StopNoise()
	t.voices.CancelPending()
	t.setState(Stopped)
	logger.Ctx("Transport.Stop").Vol(util.Normal).Log("stopped")
}

// Retime makes the run loop recompute when its next tick is due. Call it
// after changing the clock's tempo. Each run has its own interrupt, so a run
// that is shutting down can't swallow a retime meant for the next one.
func (t *Transport) Retime() {
	t.mu.Lock()
	interrupt := t.interrupt
	t.mu.Unlock()

	select {
	case interrupt <- struct{}{}:
	default:
	}
}

func (t *Transport) setState(s PlaybackState) {
	t.state = s
	t.publish(s)
}

// pending is the grid time and fire time of the next undispatched tick. It
// is worked out from the last dispatched tick with the tempo as it is now,
// so a tempo change moves every tick not yet dispatched and none that were.
func (t *Transport) pending() (grid, at time.Duration) {
	if t.fired == 0 {
		return t.clock.FirstTick(t.origin, clock.Sixteenth)
	}
	return t.clock.NextTick(t.lastGrid, t.step, clock.Sixteenth)
}

// fireDue dispatches every tick that is within the look-ahead of now and
// returns the time the loop should next wake up
func (t *Transport) fireDue(now time.Duration) (wake time.Duration) {
	for {
		grid, at := t.pending()
		if at-t.lookahead > now {
			return at - t.lookahead
		}
		t.tick(at)
		t.lastGrid = grid
		t.fired++
	}
}

// tick dispatches the commands for the current step, publishes the new
// position and moves on. The harmonic grid is clocked by the percussion
// grid wrapping.
func (t *Transport) tick(at time.Duration) {
	logger := logger.Ctx("Transport.tick").Vol(util.Quieter)

	cmds := t.Percussion.OnTick(t.step, at)
	if t.step == 0 {
		cmds = append(cmds, t.Harmonic.OnTick(t.slot, at)...)
	}
	for _, cmd := range cmds {
		logger.Log(cmd)
		t.voices.Trigger(cmd.Voice, cmd.Pitches, cmd.Duration, cmd.At)
	}
	t.setState(PlaybackState{Running: true, Step: t.step, Slot: t.slot})

	t.step = (t.step + 1) % Steps
	if t.step == 0 {
		t.slot = (t.slot + 1) % Slots
	}
}

func (t *Transport) run(gen int, stop, interrupt <-chan struct{}) {
	logger := logger.Ctx("Transport.run").Vol(util.Quiet)
	logger.Log("run", gen, "started")
	defer logger.Log("run", gen, "finished")

	for {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		wake := t.fireDue(t.src.Now())
		t.mu.Unlock()

		timer := t.src.TimerAt(wake)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-interrupt:
			timer.Stop()
		case <-timer.C():
		}
	}
}
