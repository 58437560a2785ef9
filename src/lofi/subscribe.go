package lofi

import (
	"sync"

	"tjweldon/lofi/src/util"
)

const subscriberBuffer = 16

// subscribers fans playback states out to every subscription. publish runs
// on the transport's tick path and never blocks: when a subscriber's buffer
// is full its oldest state is thrown away to make room.
type subscribers struct {
	mu   sync.Mutex
	subs map[chan PlaybackState]struct{}
}

func (ss *subscribers) add(size int) (<-chan PlaybackState, func()) {
	c := make(chan PlaybackState, size)

	ss.mu.Lock()
	if ss.subs == nil {
		ss.subs = make(map[chan PlaybackState]struct{})
	}
	ss.subs[c] = struct{}{}
	ss.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ss.mu.Lock()
			defer ss.mu.Unlock()
			delete(ss.subs, c)
			close(c)
		})
	}
	return c, cancel
}

func (ss *subscribers) publish(state PlaybackState) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	for c := range ss.subs {
		for {
			select {
			case c <- state:
			default:
				// full: drop the oldest and try again
				select {
				case <-c:
					logger.Ctx("publish").Vol(util.Quieter).Log("subscriber lagging, dropped a state")
				default:
				}
				continue
			}
			break
		}
	}
}
