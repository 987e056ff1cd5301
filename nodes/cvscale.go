package nodes

import (
	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// TypeCVScale is the registry name of CVScale.
const TypeCVScale = "cv-scale"

// CVScale turns a CV input into audio: out = cv * scale + offset.
type CVScale struct {
	layout *port.List
	scale  *param.ControlPort
	offset *param.ControlPort
}

// NewCVScale returns a CV scaler.
func NewCVScale() *CVScale {
	b := port.NewBuilder()
	b.Add(port.CV, true, "cv_in", "CV In")
	b.Add(port.Audio, false, "out", "Out")
	scaleIdx := b.AddControl(true, "scale", "Scale", -10, 10, 1)
	offsetIdx := b.AddControl(true, "offset", "Offset", -10, 10, 0)

	layout := b.List()
	scaleDesc, _ := layout.Port(scaleIdx)
	offsetDesc, _ := layout.Port(offsetIdx)

	return &CVScale{
		layout: layout,
		scale:  param.NewControlPort(scaleDesc, 0),
		offset: param.NewControlPort(offsetDesc, 1),
	}
}

func (c *CVScale) TypeName() string     { return TypeCVScale }
func (c *CVScale) Kind() processor.Kind { return processor.KindAudioProcessor }
func (c *CVScale) Ports() *port.List    { return c.layout.Clone() }

// Parameters returns the scale and offset controls.
func (c *CVScale) Parameters() []*param.ControlPort {
	return []*param.ControlPort{c.scale, c.offset}
}

func (c *CVScale) Prepare(processor.PrepareContext) error { return nil }
func (c *CVScale) Release()                              {}

func (c *CVScale) Render(b *processor.Block) {
	if b.AudioOuts == 0 {
		return
	}

	scale, offset := c.scale.Get(), c.offset.Get()
	out := b.Audio.Channel(0)

	var cv []float64
	if b.CVIns > 0 {
		cv = b.CV.Channel(0)
	}

	for i := range out {
		x := 0.0
		if i < len(cv) {
			x = cv[i]
		}
		out[i] = x*scale + offset
	}
}
