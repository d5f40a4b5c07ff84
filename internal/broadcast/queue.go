package broadcast

import (
	"sync"

	"wordduel/internal/models"
)

// Queue is a Sink backed by a bounded channel. A single consumer drains
// Frames and writes them to the network, so the hub never blocks on I/O.
type Queue struct {
	id     string
	frames chan any
	closed bool
	mu     sync.Mutex
}

// NewQueue creates a queue sink holding at most size pending frames.
func NewQueue(id string, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{id: id, frames: make(chan any, size)}
}

// ID returns the queue identifier.
func (q *Queue) ID() string { return q.id }

// Deliver enqueues an event without blocking.
func (q *Queue) Deliver(ev models.Event) bool {
	return q.Push(ev)
}

// Push enqueues any frame (events or control replies) without blocking.
func (q *Queue) Push(frame any) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.frames <- frame:
		return true
	default:
		return false
	}
}

// Frames is drained by the connection writer. It is closed by Close.
func (q *Queue) Frames() <-chan any { return q.frames }

// Close stops the queue. Pending frames can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.frames)
}
