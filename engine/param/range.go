// Package param binds control port values to host-visible normalised
// parameters.
//
// Values are stored atomically and listeners run synchronously on the
// calling goroutine, which may be the render thread. Listener code is held
// to the same rules as render code: no locks, no allocation, no I/O.
package param

import (
	"math"

	"github.com/cwbudde/algo-graph/engine/core"
)

// Range maps natural values to and from 0..1.
//
// Interval, when positive, snaps natural values to multiples of itself from
// Start. Skew shapes the mapping: 1 is linear, below 1 spends more of the
// normalised range on low values.
type Range struct {
	Start    float64
	End      float64
	Interval float64
	Skew     float64
}

// NewRange returns a linear range.
func NewRange(start, end float64) Range {
	return Range{Start: start, End: end, Skew: 1}
}

// Length returns End - Start.
func (r Range) Length() float64 {
	return r.End - r.Start
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return core.Clamp(v, r.Start, r.End)
}

// ConvertTo0to1 maps a natural value to 0..1.
func (r Range) ConvertTo0to1(v float64) float64 {
	length := r.Length()
	if length == 0 {
		return 0
	}

	p := core.Clamp((r.Clamp(v)-r.Start)/length, 0, 1)
	if r.Skew > 0 && r.Skew != 1 && p > 0 {
		p = math.Pow(p, r.Skew)
	}

	return p
}

// ConvertFrom0to1 maps a normalised value to the natural range, snapped to
// the interval.
func (r Range) ConvertFrom0to1(p float64) float64 {
	p = core.Clamp(p, 0, 1)
	if r.Skew > 0 && r.Skew != 1 && p > 0 {
		p = math.Exp(math.Log(p) / r.Skew)
	}

	return r.Snap(r.Start + r.Length()*p)
}

// Snap rounds v to the nearest legal value.
func (r Range) Snap(v float64) float64 {
	if r.Interval > 0 {
		v = r.Start + r.Interval*math.Floor((v-r.Start)/r.Interval+0.5)
	}

	return r.Clamp(v)
}
