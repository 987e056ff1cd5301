package core

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 that can be read and written from any goroutine
// without locking. The zero value holds 0.
type AtomicFloat struct {
	bits atomic.Uint64
}

// NewAtomicFloat returns an AtomicFloat holding v.
func NewAtomicFloat(v float64) *AtomicFloat {
	f := &AtomicFloat{}
	f.Store(v)

	return f
}

// Load returns the current value.
func (f *AtomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store sets the value.
func (f *AtomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// Swap sets the value and returns the previous one.
func (f *AtomicFloat) Swap(v float64) float64 {
	return math.Float64frombits(f.bits.Swap(math.Float64bits(v)))
}
