// Package signal provides typed observer lists.
//
// Connecting and disconnecting take a lock and allocate, so they belong on
// the control thread. Emit reads an immutable snapshot without locking or
// allocating and may run on any thread; each signal documents which thread
// emits it, and slots inherit that thread's restrictions.
package signal

import (
	"sync"
	"sync/atomic"
)

type slot[T any] struct {
	id uint64
	fn func(T)
}

// Signal is a list of slots called with a value of type T. The zero value
// is ready to use.
type Signal[T any] struct {
	mu     sync.Mutex
	nextID uint64
	slots  atomic.Pointer[[]slot[T]]
}

// Connection removes one slot from its signal.
type Connection struct {
	disconnect func()
}

// Disconnect removes the slot. It is safe to call more than once and on
// the zero Connection.
func (c Connection) Disconnect() {
	if c.disconnect != nil {
		c.disconnect()
	}
}

// Connect adds fn and returns a handle that removes it.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	if fn == nil {
		return Connection{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	cur := s.load()
	next := make([]slot[T], 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, slot[T]{id: id, fn: fn})
	s.slots.Store(&next)

	var once sync.Once

	return Connection{disconnect: func() {
		once.Do(func() { s.remove(id) })
	}}
}

// Emit calls every connected slot in connection order.
func (s *Signal[T]) Emit(v T) {
	for _, sl := range s.load() {
		sl.fn(v)
	}
}

// Len returns the number of connected slots.
func (s *Signal[T]) Len() int {
	return len(s.load())
}

// DisconnectAll removes every slot.
func (s *Signal[T]) DisconnectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots.Store(nil)
}

func (s *Signal[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := make([]slot[T], 0, len(cur))
	for _, sl := range cur {
		if sl.id != id {
			next = append(next, sl)
		}
	}
	s.slots.Store(&next)
}

func (s *Signal[T]) load() []slot[T] {
	if p := s.slots.Load(); p != nil {
		return *p
	}

	return nil
}
