package nodes

import (
	"math"
	"strconv"

	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// TypeFilter is the registry name of Filter.
const TypeFilter = "filter"

// biquad is one Direct Form II Transposed second-order section. a0 is
// normalized to 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (c biquad) process(buf []float64, d *[2]float64) {
	d0, d1 := d[0], d[1]
	for i, x := range buf {
		y := c.b0*x + d0
		d0 = c.b1*x - c.a1*y + d1
		d1 = c.b2*x - c.a2*y
		buf[i] = y
	}
	d[0], d[1] = d0, d1
}

// passBiquad designs an RBJ lowpass or highpass section. freq is clamped
// below Nyquist.
func passBiquad(highpass bool, freq, q, sampleRate float64) biquad {
	freq = min(max(freq, 1), 0.49*sampleRate)
	q = max(q, 1e-3)

	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)

	b0, b1 := (1-cw)/2, 1-cw
	if highpass {
		b0, b1 = (1+cw)/2, -(1 + cw)
	}
	a0 := 1 + alpha

	return biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b0 / a0,
		a1: -2 * cw / a0,
		a2: (1 - alpha) / a0,
	}
}

// Filter is a resonant lowpass or highpass on N audio channels.
type Filter struct {
	channels int
	layout   *port.List
	cutoff   *param.ControlPort
	q        *param.ControlPort
	highpass *param.ControlPort

	sampleRate float64
	coeffs     biquad
	designed   [3]float64
	state      [][2]float64
}

// NewFilter returns a filter for the given number of channels.
func NewFilter(channels int) *Filter {
	channels = max(channels, 1)

	b := port.NewBuilder()
	for i := range channels {
		s := strconv.Itoa(i + 1)
		b.Add(port.Audio, true, "in_"+s, "In "+s)
	}
	for i := range channels {
		s := strconv.Itoa(i + 1)
		b.Add(port.Audio, false, "out_"+s, "Out "+s)
	}
	cutoffIdx := b.AddControl(true, "cutoff", "Cutoff (Hz)", 20, 20000, 1000)
	qIdx := b.AddControl(true, "q", "Q", 0.1, 20, math.Sqrt2/2)
	modeIdx := b.AddControl(true, "highpass", "Highpass", 0, 1, 0)

	layout := b.List()
	cutoffDesc, _ := layout.Port(cutoffIdx)
	qDesc, _ := layout.Port(qIdx)
	modeDesc, _ := layout.Port(modeIdx)

	return &Filter{
		channels:   channels,
		layout:     layout,
		cutoff:     param.NewControlPort(cutoffDesc, 0),
		q:          param.NewControlPort(qDesc, 1),
		highpass:   param.NewControlPort(modeDesc, 2),
		sampleRate: 48000,
	}
}

func (f *Filter) TypeName() string     { return TypeFilter }
func (f *Filter) Kind() processor.Kind { return processor.KindAudioProcessor }
func (f *Filter) Ports() *port.List    { return f.layout.Clone() }

// Parameters returns the cutoff, q and highpass controls.
func (f *Filter) Parameters() []*param.ControlPort {
	return []*param.ControlPort{f.cutoff, f.q, f.highpass}
}

// State returns the controls as a program blob.
func (f *Filter) State() ([]byte, error) { return paramState(f.Parameters()) }

// SetState restores a blob returned by State.
func (f *Filter) SetState(data []byte) error { return setParamState(f.Parameters(), data) }

func (f *Filter) Prepare(ctx processor.PrepareContext) error {
	f.sampleRate = ctx.SampleRate
	f.state = make([][2]float64, f.channels)
	f.design()

	return nil
}

func (f *Filter) Release() {
	f.state = nil
}

// design recomputes the coefficients when a control moved.
func (f *Filter) design() {
	mode := 0.0
	if f.highpass.Get() >= 0.5 {
		mode = 1
	}

	want := [3]float64{f.cutoff.Get(), f.q.Get(), mode}
	if want == f.designed && f.coeffs != (biquad{}) {
		return
	}

	f.designed = want
	f.coeffs = passBiquad(mode == 1, want[0], want[1], f.sampleRate)
}

func (f *Filter) Render(b *processor.Block) {
	if len(f.state) == 0 {
		return
	}

	f.design()

	for ch := range min(b.AudioOuts, len(f.state)) {
		f.coeffs.process(b.Audio.Channel(ch), &f.state[ch])
	}
}
