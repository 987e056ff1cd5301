package midi

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
)

// Default capacities used by NewBuffer callers that have no better estimate.
const (
	DefaultMaxEvents = 1024
	DefaultMaxBytes  = 8192
)

type event struct {
	frame  int
	offset int
	size   int
}

// Buffer is a frame-ordered list of MIDI messages with fixed capacity.
//
// Removing events leaves their bytes in the arena until the next Clear;
// buffers are cleared every block.
type Buffer struct {
	events []event
	data   []byte
}

// NewBuffer returns a buffer able to hold maxEvents messages totalling
// maxBytes bytes.
func NewBuffer(maxEvents, maxBytes int) *Buffer {
	return &Buffer{
		events: make([]event, 0, max(maxEvents, 0)),
		data:   make([]byte, 0, max(maxBytes, 0)),
	}
}

// Len returns the number of events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Add stores a copy of msg at frame, after any events already at that frame.
// It returns false when the buffer is full or msg is empty.
func (b *Buffer) Add(msg midi.Message, frame int) bool {
	if len(msg) == 0 || len(b.events) == cap(b.events) || len(b.data)+len(msg) > cap(b.data) {
		return false
	}

	offset := len(b.data)
	b.data = append(b.data, msg...)

	ev := event{frame: frame, offset: offset, size: len(msg)}

	n := len(b.events)
	if n == 0 || b.events[n-1].frame <= frame {
		b.events = append(b.events, ev)
		return true
	}

	at := sort.Search(n, func(i int) bool { return b.events[i].frame > frame })
	b.events = append(b.events, event{})
	copy(b.events[at+1:], b.events[at:])
	b.events[at] = ev

	return true
}

// Event returns message i and its frame. The message aliases the buffer and
// is only valid until the buffer is cleared.
func (b *Buffer) Event(i int) (midi.Message, int) {
	ev := b.events[i]
	return midi.Message(b.data[ev.offset : ev.offset+ev.size : ev.offset+ev.size]), ev.frame
}

// Each calls fn for every event in frame order.
func (b *Buffer) Each(fn func(msg midi.Message, frame int)) {
	for i := range b.events {
		msg, frame := b.Event(i)
		fn(msg, frame)
	}
}

// Filter keeps only the events for which keep returns true. keep may edit
// the message bytes in place.
func (b *Buffer) Filter(keep func(msg midi.Message, frame int) bool) {
	out := b.events[:0]
	for i := range b.events {
		msg, frame := b.Event(i)
		if keep(msg, frame) {
			out = append(out, b.events[i])
		}
	}
	b.events = out
}

// Clear removes every event.
func (b *Buffer) Clear() {
	b.events = b.events[:0]
	b.data = b.data[:0]
}

// ClearRange removes events with start <= frame < start+count.
func (b *Buffer) ClearRange(start, count int) {
	end := start + count
	b.Filter(func(_ midi.Message, frame int) bool {
		return frame < start || frame >= end
	})
}

// AddFrom copies the events of src with start <= frame < start+count,
// shifting their frames by offset. Events that do not fit are dropped.
func (b *Buffer) AddFrom(src *Buffer, start, count, offset int) {
	if src == nil || src == b {
		return
	}

	end := start + count
	for i := range src.events {
		msg, frame := src.Event(i)
		if frame >= start && frame < end {
			b.Add(msg, frame+offset)
		}
	}
}

// CopyFrom replaces the contents of b with those of src.
func (b *Buffer) CopyFrom(src *Buffer) {
	if src == b {
		return
	}

	b.Clear()
	if src == nil {
		return
	}

	for i := range src.events {
		msg, frame := src.Event(i)
		b.Add(msg, frame)
	}
}

// Swap exchanges the contents of two buffers.
func (b *Buffer) Swap(other *Buffer) {
	b.events, other.events = other.events, b.events
	b.data, other.data = other.data, b.data
}
