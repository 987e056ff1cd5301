package nodes

import (
	"math"
	"strconv"

	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// TypeDelay is the registry name of Delay.
const TypeDelay = "delay"

// MaxDelayMS is the longest delay Delay supports.
const MaxDelayMS = 1000.0

// Delay holds N audio channels back by a fixed time and reports that
// time as latency.
type Delay struct {
	channels int
	layout   *port.List
	time     *param.ControlPort

	sampleRate float64
	lines      [][]float64
	write      int
}

// NewDelay returns a delay for the given number of channels.
func NewDelay(channels int) *Delay {
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
	idx := b.AddControl(true, "time", "Time (ms)", 0, MaxDelayMS, 10)

	layout := b.List()
	desc, _ := layout.Port(idx)

	return &Delay{
		channels: channels,
		layout:   layout,
		time:     param.NewControlPort(desc, 0),
	}
}

func (d *Delay) TypeName() string     { return TypeDelay }
func (d *Delay) Kind() processor.Kind { return processor.KindAudioProcessor }
func (d *Delay) Ports() *port.List    { return d.layout.Clone() }

// Parameters returns the time control.
func (d *Delay) Parameters() []*param.ControlPort { return []*param.ControlPort{d.time} }

// Latency returns the delay in samples at the prepared sample rate.
func (d *Delay) Latency() int {
	return d.samples()
}

func (d *Delay) samples() int {
	n := int(math.Round(d.time.Get() * d.sampleRate / 1000))
	if len(d.lines) > 0 {
		n = min(n, len(d.lines[0])-1)
	}

	return max(n, 0)
}

func (d *Delay) Prepare(ctx processor.PrepareContext) error {
	d.sampleRate = ctx.SampleRate
	size := int(math.Ceil(MaxDelayMS*ctx.SampleRate/1000)) + 1

	d.lines = make([][]float64, d.channels)
	for ch := range d.lines {
		d.lines[ch] = make([]float64, size)
	}
	d.write = 0

	return nil
}

func (d *Delay) Release() {
	d.lines = nil
}

func (d *Delay) Render(b *processor.Block) {
	if len(d.lines) == 0 {
		return
	}

	delay := d.samples()
	size := len(d.lines[0])

	for ch := range min(b.AudioOuts, len(d.lines)) {
		line := d.lines[ch]
		data := b.Audio.Channel(ch)
		w := d.write

		for i, x := range data {
			line[w] = x
			r := w - delay
			if r < 0 {
				r += size
			}
			data[i] = line[r]

			w++
			if w == size {
				w = 0
			}
		}
	}

	d.write = (d.write + b.Frames) % size
}
