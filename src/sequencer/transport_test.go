package sequencer

import (
	"sync"
	"testing"
	"time"

	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/synth"
)

// recorder is a Voices that remembers what it was told
type recorder struct {
	mu        sync.Mutex
	cmds      []FireCommand
	noiseOn   []time.Duration
	noiseOffs int
	cancels   int
}

func (r *recorder) Trigger(id synth.VoiceID, pitches []string, duration, at time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, FireCommand{Voice: id, Pitches: pitches, Duration: duration, At: at})
}

func (r *recorder) StartNoise(at time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noiseOn = append(r.noiseOn, at)
}

func (r *recorder) StopNoise() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noiseOffs++
}

func (r *recorder) CancelPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

func (r *recorder) commands() []FireCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FireCommand(nil), r.cmds...)
}

// played is the commands given to one voice
func (r *recorder) played(id synth.VoiceID) (cmds []FireCommand) {
	for _, cmd := range r.commands() {
		if cmd.Voice == id {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

type chordMap map[string][]string

func (m chordMap) Resolve(chord string) []string { return m[chord] }

var testChords = chordMap{
	"Dm7":   {"D3", "F3", "A3", "C4"},
	"G7":    {"G2", "B2", "D3", "F3"},
	"Cmaj7": {"C3", "E3", "G3", "B3"},
	"Am7":   {"A2", "C3", "E3", "G3"},
}

func mustSteps(t *testing.T, s string) [Steps]bool {
	t.Helper()
	steps, err := ParseSteps(s)
	if err != nil {
		t.Fatal(err)
	}
	return steps
}

type fixture struct {
	transport *Transport
	voices    *recorder
	src       *clock.Manual
	clock     *clock.Clock
	states    chan PlaybackState
}

func newFixture(t *testing.T, tempo clock.Tempo, pattern StepPattern) *fixture {
	f := &fixture{
		voices: &recorder{},
		src:    clock.NewManual(),
		clock:  clock.New(tempo),
		states: make(chan PlaybackState, 1024),
	}
	f.transport = NewTransport(
		f.clock,
		f.src,
		f.voices,
		&PercussionTrack{Pattern: pattern, Clock: f.clock},
		&HarmonicTrack{
			Progression: NewProgression([Slots]string{"Dm7", "G7", "Cmaj7", "Am7"}),
			Chords:      testChords,
			Clock:       f.clock,
		},
		0,
		func(s PlaybackState) { f.states <- s },
	)
	t.Cleanup(f.transport.Stop)
	return f
}

func (f *fixture) next(t *testing.T) PlaybackState {
	t.Helper()
	select {
	case s := <-f.states:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a playback state")
		return PlaybackState{}
	}
}

func (f *fixture) expect(t *testing.T, want PlaybackState) {
	t.Helper()
	if got := f.next(t); got != want {
		t.Fatalf("got state %v, want %v", got, want)
	}
}

func TestTransportEndToEnd(t *testing.T) {
	pattern := StepPattern{Kick: mustSteps(t, "1000100010001000")}
	f := newFixture(t, clock.Tempo{BPM: 75}, pattern)
	step := f.clock.StepDuration(clock.Sixteenth)

	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})

	for i := 1; i < Steps; i++ {
		f.src.Advance(step)
		f.expect(t, PlaybackState{Running: true, Step: i, Slot: 0})
	}

	// the wrap moves both grids in the one tick
	f.src.Advance(step)
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 1})

	var kicks, chords []time.Duration
	for _, cmd := range f.voices.commands() {
		switch cmd.Voice {
		case synth.Kick:
			kicks = append(kicks, cmd.At)
		case synth.Chords:
			chords = append(chords, cmd.At)
		}
	}
	wantKicks := []time.Duration{0, 800 * time.Millisecond, 1600 * time.Millisecond, 2400 * time.Millisecond, 3200 * time.Millisecond}
	if len(kicks) != len(wantKicks) {
		t.Fatalf("kicks at %v, want %v", kicks, wantKicks)
	}
	for i := range kicks {
		if kicks[i] != wantKicks[i] {
			t.Errorf("kick %d at %v, want %v", i, kicks[i], wantKicks[i])
		}
	}
	if len(chords) != 2 || chords[0] != 0 || chords[1] != 3200*time.Millisecond {
		t.Errorf("chords at %v", chords)
	}
	if len(f.voices.noiseOn) != 1 || f.voices.noiseOn[0] != 0 {
		t.Errorf("noise started at %v", f.voices.noiseOn)
	}
}

func TestTransportSwing(t *testing.T) {
	pattern := StepPattern{HiHat: mustSteps(t, "1111111111111111")}
	f := newFixture(t, clock.Tempo{BPM: 75, Swing: 0.5}, pattern)

	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})

	// step 1 is pushed back half a sixteenth, step 2 is back on the grid
	f.src.Advance(299 * time.Millisecond)
	f.src.Advance(time.Millisecond)
	f.expect(t, PlaybackState{Running: true, Step: 1, Slot: 0})
	f.src.Advance(100 * time.Millisecond)
	f.expect(t, PlaybackState{Running: true, Step: 2, Slot: 0})

	want := []time.Duration{0, 300 * time.Millisecond, 400 * time.Millisecond}
	cmds := f.voices.played(synth.HiHat)
	if len(cmds) != len(want) {
		t.Fatalf("got %v", cmds)
	}
	for i, cmd := range cmds {
		if cmd.At != want[i] {
			t.Errorf("hat %d at %v, want %v", i, cmd.At, want[i])
		}
	}
}

func TestTransportStartStopIdempotent(t *testing.T) {
	f := newFixture(t, clock.Tempo{BPM: 75}, StepPattern{})

	f.transport.Stop()
	if s := f.transport.State(); s != Stopped {
		t.Fatalf("initial state %v", s)
	}

	f.transport.Start()
	f.transport.Start()
	f.transport.Stop()
	f.transport.Stop()

	var starts, stops int
	for len(f.states) > 0 {
		switch s := <-f.states; {
		case s == PlaybackState{Running: true, Step: None, Slot: None}:
			starts++
		case s == Stopped:
			stops++
		}
	}
	if starts != 1 || stops != 1 {
		t.Errorf("published %d starts and %d stops, want 1 of each", starts, stops)
	}
	if len(f.voices.noiseOn) != 1 || f.voices.noiseOffs != 1 {
		t.Errorf("noise started %d times, stopped %d times", len(f.voices.noiseOn), f.voices.noiseOffs)
	}
	if s := f.transport.State(); s != Stopped {
		t.Errorf("final state %v", s)
	}
}

func TestTransportStopCancelsPendingTicks(t *testing.T) {
	pattern := StepPattern{HiHat: mustSteps(t, "1111111111111111")}
	f := newFixture(t, clock.Tempo{BPM: 75}, pattern)
	step := f.clock.StepDuration(clock.Sixteenth)

	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})
	f.src.Advance(step)
	f.expect(t, PlaybackState{Running: true, Step: 1, Slot: 0})

	f.transport.Stop()
	f.expect(t, Stopped)
	fired := len(f.voices.commands())
	if f.voices.cancels != 1 {
		t.Errorf("voice pool cancelled %d times", f.voices.cancels)
	}

	f.src.Advance(10 * step)
	time.Sleep(20 * time.Millisecond)
	if got := len(f.voices.commands()); got != fired {
		t.Fatalf("%d ticks fired after stop", got-fired)
	}

	// a new run starts from the top again
	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})
	if cmds := f.voices.commands(); cmds[len(cmds)-1].At != f.src.Now() {
		t.Errorf("restart fired at %v, want %v", cmds[len(cmds)-1].At, f.src.Now())
	}
}

func TestTransportRetime(t *testing.T) {
	pattern := StepPattern{HiHat: mustSteps(t, "1111111111111111")}
	f := newFixture(t, clock.Tempo{BPM: 60}, pattern)

	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})
	f.src.Advance(250 * time.Millisecond)
	f.expect(t, PlaybackState{Running: true, Step: 1, Slot: 0})

	f.clock.SetBPM(100)
	f.transport.Retime()
	f.src.Advance(150 * time.Millisecond)
	f.expect(t, PlaybackState{Running: true, Step: 2, Slot: 0})

	want := []time.Duration{0, 250 * time.Millisecond, 400 * time.Millisecond}
	cmds := f.voices.played(synth.HiHat)
	if len(cmds) != len(want) {
		t.Fatalf("got %v", cmds)
	}
	for i, cmd := range cmds {
		if cmd.At != want[i] {
			t.Errorf("tick %d at %v, want %v", i, cmd.At, want[i])
		}
	}
	if cmds[2].Duration != 150*time.Millisecond {
		t.Errorf("hat after retime lasts %v", cmds[2].Duration)
	}
}

func TestRetimeAfterRestartReachesNewRun(t *testing.T) {
	pattern := StepPattern{HiHat: mustSteps(t, "1111111111111111")}
	f := newFixture(t, clock.Tempo{BPM: 60}, pattern)

	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})
	f.transport.mu.Lock()
	first := f.transport.interrupt
	f.transport.mu.Unlock()

	f.transport.Stop()
	f.expect(t, Stopped)
	f.transport.Start()
	f.expect(t, PlaybackState{Running: true, Step: None, Slot: None})
	f.expect(t, PlaybackState{Running: true, Step: 0, Slot: 0})

	f.clock.SetBPM(100)
	f.transport.Retime()
	if len(first) != 0 {
		t.Fatal("retime went to the stopped run")
	}

	// the restarted run wakes for its second tick on the new grid
	f.src.Advance(150 * time.Millisecond)
	f.expect(t, PlaybackState{Running: true, Step: 1, Slot: 0})
	hats := f.voices.played(synth.HiHat)
	if last := hats[len(hats)-1]; last.At != 150*time.Millisecond {
		t.Errorf("last hat at %v, want 150ms", last.At)
	}
}

// the tests below drive the tick grid directly, without the run loop

func newStill(pattern StepPattern, progression [Slots]string) (*Transport, *recorder, *[]PlaybackState) {
	c := clock.New(clock.Tempo{BPM: 75})
	voices := &recorder{}
	states := &[]PlaybackState{}
	tr := NewTransport(
		c,
		clock.NewManual(),
		voices,
		&PercussionTrack{Pattern: pattern, Clock: c},
		&HarmonicTrack{Progression: NewProgression(progression), Chords: testChords, Clock: c},
		0,
		func(s PlaybackState) { *states = append(*states, s) },
	)
	return tr, voices, states
}

func TestDispatchOrder(t *testing.T) {
	all := [Steps]bool{0: true, 4: true}
	tr, voices, _ := newStill(StepPattern{Kick: all, Snare: all, HiHat: all}, [Slots]string{"Dm7", "G7", "Cmaj7", "Am7"})
	tr.fireDue(0)

	want := []synth.VoiceID{synth.Kick, synth.Snare, synth.HiHat, synth.Chords}
	cmds := voices.commands()
	if len(cmds) != len(want) {
		t.Fatalf("got %v", cmds)
	}
	for i, cmd := range cmds {
		if cmd.Voice != want[i] {
			t.Errorf("command %d is %s, want %s", i, cmd.Voice, want[i])
		}
		if cmd.At != 0 {
			t.Errorf("command %d at %v", i, cmd.At)
		}
	}
	if got := cmds[3].Pitches; len(got) != 4 || got[0] != "D3" {
		t.Errorf("chord pitches %v", got)
	}
}

func TestSnareBeforeChord(t *testing.T) {
	pattern := StepPattern{
		Kick:  [Steps]bool{0: true},
		Snare: [Steps]bool{4: true},
	}
	tr, voices, _ := newStill(pattern, [Slots]string{"Dm7", "G7", "Cmaj7", "Am7"})
	step := 200 * time.Millisecond

	tr.fireDue(4 * step)
	cmds := voices.commands()
	want := []synth.VoiceID{synth.Kick, synth.Chords, synth.Snare}
	if len(cmds) != len(want) {
		t.Fatalf("got %v", cmds)
	}
	for i := range want {
		if cmds[i].Voice != want[i] {
			t.Errorf("command %d is %s, want %s", i, cmds[i].Voice, want[i])
		}
	}
	if cmds[2].At != 4*step {
		t.Errorf("snare at %v", cmds[2].At)
	}
}

func TestPhaseWrapCoupling(t *testing.T) {
	tr, voices, states := newStill(StepPattern{}, [Slots]string{"Dm7", "G7", "Cmaj7", "Am7"})
	step := 200 * time.Millisecond

	last := func() PlaybackState { return (*states)[len(*states)-1] }

	tr.fireDue(15 * step)
	if got := last(); got != (PlaybackState{Running: true, Step: 15, Slot: 0}) {
		t.Fatalf("after 16 ticks: %v", got)
	}
	tr.fireDue(16 * step)
	if got := last(); got != (PlaybackState{Running: true, Step: 0, Slot: 1}) {
		t.Fatalf("after 17 ticks: %v", got)
	}
	tr.fireDue(63 * step)
	if got := last(); got != (PlaybackState{Running: true, Step: 15, Slot: 3}) {
		t.Fatalf("after 64 ticks: %v", got)
	}
	tr.fireDue(64 * step)
	if got := last(); got != (PlaybackState{Running: true, Step: 0, Slot: 0}) {
		t.Fatalf("after 65 ticks: %v", got)
	}

	var slots []string
	for _, cmd := range voices.commands() {
		slots = append(slots, cmd.Pitches[0])
	}
	want := []string{"D3", "G2", "C3", "A2", "D3"}
	if len(slots) != len(want) {
		t.Fatalf("chords %v", slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("chord %d starts on %s, want %s", i, slots[i], want[i])
		}
	}
}

func TestUnresolvedChordIsSkipped(t *testing.T) {
	tr, voices, states := newStill(StepPattern{}, [Slots]string{"Dm7", "Nope", "", "Am7"})
	tr.fireDue(64*200*time.Millisecond - 1)

	var got []string
	for _, cmd := range voices.commands() {
		got = append(got, cmd.Pitches[0])
	}
	if len(got) != 2 || got[0] != "D3" || got[1] != "A2" {
		t.Errorf("chords %v", got)
	}
	if n := len(*states); n != 64 {
		t.Errorf("%d ticks published", n)
	}
}

func TestSlotChangeTakesEffectNextTimeReached(t *testing.T) {
	tr, voices, _ := newStill(StepPattern{}, [Slots]string{"Dm7", "G7", "Cmaj7", "Am7"})
	step := 200 * time.Millisecond

	// slot 0 has already played this cycle
	tr.fireDue(20 * step)
	tr.Harmonic.Progression.SetSlot(0, "Am7")
	tr.Harmonic.Progression.SetSlot(1, "Cmaj7")
	tr.fireDue(64 * step)

	var got []string
	for _, cmd := range voices.commands() {
		got = append(got, cmd.Pitches[0])
	}
	want := []string{"D3", "G2", "C3", "A2", "A2"}
	if len(got) != len(want) {
		t.Fatalf("chords %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chord %d starts on %s, want %s", i, got[i], want[i])
		}
	}
}
