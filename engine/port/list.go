package port

import (
	"sort"

	"github.com/cwbudde/algo-graph/internal/assert"
)

// List is an index-ordered port catalog. Lookups scan linearly: nodes have
// few ports.
//
// A List is not safe for concurrent mutation; owners guard it with their
// property lock.
type List struct {
	ports []Description
}

// NewList returns a list holding the given ports.
func NewList(ports ...Description) *List {
	l := &List{}
	for _, p := range ports {
		l.Add(p)
	}

	return l
}

// Add inserts p keeping index order. A port whose index or
// (type, channel, input) triple is already present is a programming error:
// debug builds panic, release builds refuse it and return false.
func (l *List) Add(p Description) bool {
	for _, q := range l.ports {
		if q.Index == p.Index || q.sameSlot(p) {
			assert.That(false, "port: duplicate port "+p.Symbol)
			return false
		}
	}

	at := sort.Search(len(l.ports), func(i int) bool {
		return l.ports[i].Index > p.Index
	})

	l.ports = append(l.ports, Description{})
	copy(l.ports[at+1:], l.ports[at:])
	l.ports[at] = p

	return true
}

// Builder appends ports with automatically assigned indices and channels.
type Builder struct {
	list     *List
	channels [2][NumTypes]uint32
}

// NewBuilder returns a builder over an empty list.
func NewBuilder() *Builder {
	return &Builder{list: &List{}}
}

// Add appends a port and returns its absolute index.
func (b *Builder) Add(t Type, input bool, symbol, name string) uint32 {
	dir := 0
	if input {
		dir = 1
	}

	index := uint32(b.list.Len())
	b.list.Add(Description{
		Type:    t,
		Index:   index,
		Channel: b.channels[dir][t.index()],
		Symbol:  symbol,
		Name:    name,
		Label:   name,
		Input:   input,
	})
	b.channels[dir][t.index()]++

	return index
}

// AddControl appends a control port with its value range.
func (b *Builder) AddControl(input bool, symbol, name string, minValue, maxValue, def float64) uint32 {
	index := b.Add(Control, input, symbol, name)
	p := &b.list.ports[len(b.list.ports)-1]
	p.Min, p.Max, p.Default = minValue, maxValue, def

	return index
}

// List returns the built list.
func (b *Builder) List() *List {
	return b.list
}

// Len returns the number of ports.
func (l *List) Len() int {
	if l == nil {
		return 0
	}

	return len(l.ports)
}

// Port returns a copy of the port with the given absolute index.
func (l *List) Port(index uint32) (Description, bool) {
	if l == nil {
		return Description{}, false
	}

	for _, p := range l.ports {
		if p.Index == index {
			return p, true
		}
	}

	return Description{}, false
}

// Ports returns a copy of all ports in index order.
func (l *List) Ports() []Description {
	if l == nil {
		return nil
	}

	out := make([]Description, len(l.ports))
	copy(out, l.ports)

	return out
}

// Count returns how many ports share the type and direction.
func (l *List) Count(t Type, input bool) int {
	if l == nil {
		return 0
	}

	n := 0
	for _, p := range l.ports {
		if p.Type == t && p.Input == input {
			n++
		}
	}

	return n
}

// TypeOf returns the type of the port at index, or Unknown.
func (l *List) TypeOf(index uint32) Type {
	if p, ok := l.Port(index); ok {
		return p.Type
	}

	return Unknown
}

// ChannelForPort returns the channel of the port at index, or
// InvalidChannel.
func (l *List) ChannelForPort(index uint32) uint32 {
	if p, ok := l.Port(index); ok {
		return p.Channel
	}

	return InvalidChannel
}

// PortForChannel returns the absolute index of the port with the given
// type, channel and direction, or InvalidPort.
func (l *List) PortForChannel(t Type, channel uint32, input bool) uint32 {
	if l == nil {
		return InvalidPort
	}

	for _, p := range l.ports {
		if p.Type == t && p.Channel == channel && p.Input == input {
			return p.Index
		}
	}

	return InvalidPort
}

// IndexForSymbol returns the absolute index of the port with the given
// symbol, or InvalidPort.
func (l *List) IndexForSymbol(symbol string) uint32 {
	if l == nil {
		return InvalidPort
	}

	for _, p := range l.ports {
		if p.Symbol == symbol {
			return p.Index
		}
	}

	return InvalidPort
}

// IsInput reports whether the port at index is an input, or def when there
// is no such port.
func (l *List) IsInput(index uint32, def bool) bool {
	if p, ok := l.Port(index); ok {
		return p.Input
	}

	return def
}

// IsOutput reports whether the port at index is an output, or def when
// there is no such port.
func (l *List) IsOutput(index uint32, def bool) bool {
	if p, ok := l.Port(index); ok {
		return !p.Input
	}

	return def
}

// Swap exchanges the contents of two lists in O(1). It is not synchronised;
// callers hold the owning node's property lock.
func (l *List) Swap(other *List) {
	l.ports, other.ports = other.ports, l.ports
}

// Clone returns an independent copy.
func (l *List) Clone() *List {
	return &List{ports: l.Ports()}
}

// Clear removes all ports.
func (l *List) Clear() {
	l.ports = l.ports[:0]
}
