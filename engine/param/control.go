package param

import (
	"strconv"
	"sync"

	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/signal"
)

// Listener observes parameter changes. Callbacks may arrive on the render
// thread.
type Listener interface {
	ControlValueChanged(index int, value float64)
	ControlTouched(index int, grabbed bool)
}

// Parameter is the host-visible view of a node parameter. Value and
// SetValue work in normalised 0..1 units.
type Parameter interface {
	Index() int
	Name() string
	Value() float64
	SetValue(v float64)
	DefaultValue() float64
	Text() string
}

// ControlPort is a Parameter backed by a control input port.
type ControlPort struct {
	desc  port.Description
	index int
	rng   Range
	value core.AtomicFloat

	// ValueChanged carries the new normalised value and Touched the grab
	// state. Both emit on the caller's thread, which may be the render
	// thread.
	ValueChanged signal.Signal[float64]
	Touched      signal.Signal[bool]

	mu        sync.Mutex
	listeners map[Listener][2]signal.Connection
}

var _ Parameter = (*ControlPort)(nil)

// NewControlPort returns a parameter for a control port, using the port's
// Min/Max as the range and Default as the initial value.
func NewControlPort(desc port.Description, index int) *ControlPort {
	return NewControlPortWithRange(desc, index, NewRange(desc.Min, desc.Max))
}

// NewControlPortWithRange is NewControlPort with a custom range.
func NewControlPortWithRange(desc port.Description, index int, rng Range) *ControlPort {
	if rng.Skew <= 0 {
		rng.Skew = 1
	}

	p := &ControlPort{desc: desc, index: index, rng: rng}
	p.value.Store(rng.Clamp(desc.Default))

	return p
}

// Index returns the parameter index within its node.
func (p *ControlPort) Index() int { return p.index }

// Name returns the port name.
func (p *ControlPort) Name() string { return p.desc.Name }

// Symbol returns the port symbol.
func (p *ControlPort) Symbol() string { return p.desc.Symbol }

// Port returns the port description.
func (p *ControlPort) Port() port.Description { return p.desc }

// Range returns the natural range.
func (p *ControlPort) Range() Range { return p.rng }

// Get returns the natural value.
func (p *ControlPort) Get() float64 {
	return p.value.Load()
}

// Set stores a natural value, notifying listeners when it changes.
func (p *ControlPort) Set(v float64) {
	if !core.IsFinite(v) {
		return
	}

	v = p.rng.Snap(v)
	if p.value.Swap(v) == v {
		return
	}

	p.ValueChanged.Emit(p.rng.ConvertTo0to1(v))
}

// Value returns the normalised value.
func (p *ControlPort) Value() float64 {
	return p.rng.ConvertTo0to1(p.Get())
}

// SetValue stores a normalised value.
func (p *ControlPort) SetValue(v float64) {
	if !core.IsFinite(v) {
		return
	}

	p.Set(p.rng.ConvertFrom0to1(v))
}

// DefaultValue returns the normalised default.
func (p *ControlPort) DefaultValue() float64 {
	return p.rng.ConvertTo0to1(p.desc.Default)
}

// ConvertTo0to1 maps a natural value with the parameter's range.
func (p *ControlPort) ConvertTo0to1(v float64) float64 {
	return p.rng.ConvertTo0to1(v)
}

// ConvertFrom0to1 maps a normalised value with the parameter's range.
func (p *ControlPort) ConvertFrom0to1(v float64) float64 {
	return p.rng.ConvertFrom0to1(v)
}

// Text formats the natural value.
func (p *ControlPort) Text() string {
	return strconv.FormatFloat(p.Get(), 'g', 4, 64)
}

// BeginChangeGesture tells listeners a user grabbed the control.
func (p *ControlPort) BeginChangeGesture() {
	p.Touched.Emit(true)
}

// EndChangeGesture tells listeners the control was released.
func (p *ControlPort) EndChangeGesture() {
	p.Touched.Emit(false)
}

// AddListener connects l to ValueChanged and Touched. Adding a listener
// twice has no effect; l must be comparable. Control thread only.
func (p *ControlPort) AddListener(l Listener) {
	if l == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.listeners[l]; ok {
		return
	}

	if p.listeners == nil {
		p.listeners = make(map[Listener][2]signal.Connection)
	}

	index := p.index
	p.listeners[l] = [2]signal.Connection{
		p.ValueChanged.Connect(func(v float64) { l.ControlValueChanged(index, v) }),
		p.Touched.Connect(func(grabbed bool) { l.ControlTouched(index, grabbed) }),
	}
}

// RemoveListener disconnects l. Control thread only.
func (p *ControlPort) RemoveListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.listeners[l]
	if !ok {
		return
	}

	conns[0].Disconnect()
	conns[1].Disconnect()
	delete(p.listeners, l)
}
