package clock

import (
	"sync"
	"time"
)

// Source is the timeline the transport and the voice pool agree on. Times
// are offsets from the moment the source was created.
type Source interface {
	Now() time.Duration
	// TimerAt returns a timer that fires once Now() reaches at. A time in
	// the past fires straight away.
	TimerAt(at time.Duration) Timer
}

// Timer is the part of time.Timer the run loop needs
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Wall returns a Source backed by the monotonic system clock
func Wall() Source {
	return wall{epoch: time.Now()}
}

type wall struct {
	epoch time.Time
}

func (w wall) Now() time.Duration {
	return time.Since(w.epoch)
}

func (w wall) TimerAt(at time.Duration) Timer {
	return wallTimer{time.NewTimer(at - w.Now())}
}

type wallTimer struct {
	t *time.Timer
}

func (w wallTimer) C() <-chan time.Time { return w.t.C }
func (w wallTimer) Stop() bool          { return w.t.Stop() }

// Manual is a Source that only moves when told to. Tests use it to step the
// transport through exact tick times.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	timers map[*manualTimer]struct{}
}

func NewManual() *Manual {
	return &Manual{timers: make(map[*manualTimer]struct{})}
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) TimerAt(at time.Duration) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{src: m, at: at, c: make(chan time.Time, 1)}
	if at <= m.now {
		t.c <- time.Time{}.Add(m.now)
		return t
	}
	m.timers[t] = struct{}{}
	return t
}

// Advance moves the clock forward by d and fires every timer that is now due
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now += d
	for t := range m.timers {
		if t.at <= m.now {
			t.c <- time.Time{}.Add(m.now)
			delete(m.timers, t)
		}
	}
}

// Pending is the number of timers still waiting to fire
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

type manualTimer struct {
	src *Manual
	at  time.Duration
	c   chan time.Time
}

func (t *manualTimer) C() <-chan time.Time { return t.c }

func (t *manualTimer) Stop() bool {
	t.src.mu.Lock()
	defer t.src.mu.Unlock()

	_, ok := t.src.timers[t]
	delete(t.src.timers, t)
	return ok
}
