// Package capture implements the streaming capture-to-file pipeline: a
// real-time producer callback feeding a bounded FIFO, and a consumer loop
// that rolls captured audio over into fixed-duration WAV chunks.
package capture

import (
	"context"
	"sync"
)

// Frame is one hardware buffer of interleaved 16-bit samples, copied out of
// the driver-owned buffer at enqueue time.
type Frame []int16

// Queue is the bounded FIFO bridging the producer and consumer domains.
// Push never blocks; a full queue drops the incoming frame instead of
// stalling the real-time callback.
type Queue struct {
	ch chan Frame

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a queue holding at most capacity frames.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan Frame, capacity)}
}

// Push enqueues a frame without blocking. It returns false when the frame
// was not accepted because the queue is full or closed.
func (q *Queue) Push(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	select {
	case q.ch <- f:
		return true
	default:
		return false
	}
}

// Pop blocks until a frame is available or ctx is done. It returns false
// when the queue has been closed and fully drained, or when ctx fired.
func (q *Queue) Pop(ctx context.Context) (Frame, bool) {
	select {
	case f, ok := <-q.ch:
		return f, ok
	case <-ctx.Done():
		return nil, false
	}
}

// TryPop dequeues without blocking; used to drain residual frames during
// shutdown.
func (q *Queue) TryPop() (Frame, bool) {
	select {
	case f, ok := <-q.ch:
		return f, ok
	default:
		return nil, false
	}
}

// Close rejects further pushes and, once drained, unblocks Pop. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// frames exposes the receive side for the consumer loop's select.
func (q *Queue) frames() <-chan Frame {
	return q.ch
}
