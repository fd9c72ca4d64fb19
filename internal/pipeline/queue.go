package pipeline

import (
	"sync"

	"github.com/marketloom/marketloom/internal/schema"
)

// tickQueue is a thread-safe FIFO for incoming ticks.
//
// The queue is unbounded so bursty producers never block, and uses a
// buffered signal channel so the consumer can wait without spinning while
// staying responsive to context cancellation.
type tickQueue struct {
	mu     sync.Mutex
	ticks  []schema.Tick
	closed bool
	signal chan struct{}
}

func newTickQueue() *tickQueue {
	return &tickQueue{
		ticks:  make([]schema.Tick, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// enqueue adds a tick to the back of the queue.
// Returns false if the queue is closed.
func (q *tickQueue) enqueue(t schema.Tick) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.ticks = append(q.ticks, t)

	// Non-blocking: a buffer of one coalesces repeated signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue removes the front tick without blocking.
func (q *tickQueue) tryDequeue() (schema.Tick, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ticks) == 0 {
		return schema.Tick{}, false
	}
	t := q.ticks[0]
	q.ticks[0] = schema.Tick{}
	if len(q.ticks) == 1 {
		q.ticks = q.ticks[:0]
	} else {
		q.ticks = q.ticks[1:]
	}
	return t, true
}

// wait returns a channel that fires when ticks may be available.
func (q *tickQueue) wait() <-chan struct{} {
	return q.signal
}

// drained reports whether the queue is closed and empty.
func (q *tickQueue) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.ticks) == 0
}

// close marks the queue closed; pending ticks can still be dequeued.
func (q *tickQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
