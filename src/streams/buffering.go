package streams

import (
	"sync/atomic"

	"tjweldon/lofi/src/util"
)

// Queue hands values from control goroutines to the render thread. Push
// never blocks: when the buffer is full the value is dropped and counted.
type Queue[T any] struct {
	Name string

	c       chan T
	dropped atomic.Int64
}

func NewQueue[T any](name string, size int) *Queue[T] {
	return &Queue[T]{Name: name, c: make(chan T, size)}
}

// Push enqueues v, reporting whether there was room for it
func (q *Queue[T]) Push(v T) bool {
	select {
	case q.c <- v:
		return true
	default:
		q.dropped.Add(1)
		logger.Ctx(q.Name).Vol(util.Loud).Log("queue full, dropping")
		return false
	}
}

// Drain calls f for everything currently queued, without waiting for more
func (q *Queue[T]) Drain(f func(T)) {
	for {
		select {
		case v := <-q.c:
			f(v)
		default:
			return
		}
	}
}

// Len is the number of queued values
func (q *Queue[T]) Len() int { return len(q.c) }

// Dropped is the number of values Push has had to throw away
func (q *Queue[T]) Dropped() int64 { return q.dropped.Load() }
