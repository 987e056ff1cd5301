// Package async moves work off the render thread.
//
// A Loop is the control thread's task queue. Posting is non-blocking and
// allocation free for pre-built func values, so the render thread may post;
// tasks run later, in FIFO order, on whichever goroutine drives the loop
// with Run or Dispatch.
package async

import (
	"context"
	"sync/atomic"
)

// DefaultCapacity is the task queue size used when NewLoop gets a
// non-positive capacity.
const DefaultCapacity = 1024

// Loop is a FIFO queue of deferred tasks.
type Loop struct {
	tasks   chan func()
	dropped atomic.Uint64
}

// NewLoop returns a loop with room for capacity pending tasks.
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Loop{tasks: make(chan func(), capacity)}
}

// Post queues fn without blocking. It returns false, counting the task as
// dropped, when the queue is full.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	select {
	case l.tasks <- fn:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Dispatch runs queued tasks until the queue is empty, including tasks
// posted by the tasks themselves, and returns how many ran.
func (l *Loop) Dispatch() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			fn()
			n++
		default:
			return n
		}
	}
}

// Run executes tasks as they arrive until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	return len(l.tasks)
}

// Dropped returns how many posts were refused because the queue was full.
func (l *Loop) Dropped() uint64 {
	return l.dropped.Load()
}
