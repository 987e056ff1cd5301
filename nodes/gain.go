package nodes

import (
	"strconv"

	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// TypeGain is the registry name of Gain.
const TypeGain = "gain"

// Volume limits of Gain in dB.
const (
	MinVolumeDB = -60.0
	MaxVolumeDB = 12.0
)

// Gain scales N audio channels by a volume in dB. Volume changes ramp
// across one block.
type Gain struct {
	channels int
	layout   *port.List
	volume   *param.ControlPort
	last     float64
}

// NewGain returns a gain processor for the given number of channels.
func NewGain(channels int) *Gain {
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
	idx := b.AddControl(true, "volume", "Volume", MinVolumeDB, MaxVolumeDB, 0)

	layout := b.List()
	desc, _ := layout.Port(idx)

	return &Gain{
		channels: channels,
		layout:   layout,
		volume:   param.NewControlPort(desc, 0),
		last:     1,
	}
}

func (g *Gain) TypeName() string     { return TypeGain }
func (g *Gain) Kind() processor.Kind { return processor.KindAudioProcessor }
func (g *Gain) Ports() *port.List    { return g.layout.Clone() }

// Parameters returns the volume control.
func (g *Gain) Parameters() []*param.ControlPort { return []*param.ControlPort{g.volume} }

// Volume returns the volume control.
func (g *Gain) Volume() *param.ControlPort { return g.volume }

func (g *Gain) Prepare(processor.PrepareContext) error {
	g.last = g.target()
	return nil
}

func (g *Gain) Release() {}

func (g *Gain) target() float64 {
	db := g.volume.Get()
	if db <= MinVolumeDB {
		return 0
	}

	return core.DBToGain(db)
}

func (g *Gain) Render(b *processor.Block) {
	target := g.target()
	for ch := range b.AudioOuts {
		b.Audio.ApplyGainRamp(ch, g.last, target)
	}
	g.last = target
}

// State returns the volume as a program blob.
func (g *Gain) State() ([]byte, error) { return paramState(g.Parameters()) }

// SetState restores a blob returned by State.
func (g *Gain) SetState(data []byte) error { return setParamState(g.Parameters(), data) }
