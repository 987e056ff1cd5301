package graph

import (
	"testing"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

const testBlock = 32

// stub is a configurable processor for graph tests. It scales audio by
// gain, passes MIDI through and, with a CV input, adds it to audio
// output 0.
type stub struct {
	audioIns, audioOuts int
	cvIns               int
	midiIns, midiOuts   int
	controlIn           bool
	controlOut          bool
	gain                float64
	latency             int

	params []*param.ControlPort
}

func (s *stub) Kind() processor.Kind { return processor.KindAudioProcessor }

func (s *stub) Ports() *port.List {
	b := port.NewBuilder()
	for range s.audioIns {
		b.Add(port.Audio, true, "", "")
	}
	for range s.audioOuts {
		b.Add(port.Audio, false, "", "")
	}
	for range s.cvIns {
		b.Add(port.CV, true, "", "")
	}
	for range s.midiIns {
		b.Add(port.Midi, true, "", "")
	}
	for range s.midiOuts {
		b.Add(port.Midi, false, "", "")
	}

	var ctl []uint32
	if s.controlIn {
		ctl = append(ctl, b.AddControl(true, "level_in", "Level In", 0, 10, 0))
	}
	if s.controlOut {
		ctl = append(ctl, b.AddControl(false, "level", "Level", 0, 10, 0))
	}

	l := b.List()
	if len(s.params) != len(ctl) {
		s.params = s.params[:0]
		for i, index := range ctl {
			desc, _ := l.Port(index)
			s.params = append(s.params, param.NewControlPort(desc, i))
		}
	}

	return l
}

func (s *stub) Parameters() []*param.ControlPort { return s.params }

func (s *stub) Prepare(processor.PrepareContext) error { return nil }
func (s *stub) Release()                              {}
func (s *stub) Latency() int                          { return s.latency }

func (s *stub) Render(b *processor.Block) {
	for ch := range b.AudioOuts {
		b.Audio.ApplyGain(ch, s.gain)
	}

	if b.CVIns > 0 && b.AudioOuts > 0 {
		b.Audio.AddChannel(0, b.CV.Channel(0), 1)
	}
}

func newStub(ins, outs int) *stub {
	return &stub{audioIns: ins, audioOuts: outs, gain: 1}
}

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()

	cfg := core.ApplyPlayOptions(core.WithSampleRate(48000), core.WithBlockSize(testBlock))

	return New(append([]Option{WithPlayConfig(cfg)}, opts...)...)
}

func add(t *testing.T, g *Graph, impl processor.Impl) *processor.Node {
	t.Helper()

	n := processor.New(impl)
	if g.AddNode(n, 0) == 0 {
		t.Fatal("AddNode failed")
	}

	return n
}

// portOf returns the absolute index of a node port.
func portOf(t *testing.T, n *processor.Node, typ port.Type, channel int, input bool) uint32 {
	t.Helper()

	p := n.Ports().PortForChannel(typ, uint32(channel), input)
	if p == port.InvalidPort {
		t.Fatalf("node %d has no %v port %d (input=%v)", n.ID(), typ, channel, input)
	}

	return p
}

func connect(t *testing.T, g *Graph, src *processor.Node, srcCh int, dst *processor.Node, dstCh int, typ port.Type) {
	t.Helper()

	if !g.AddConnection(src.ID(), portOf(t, src, typ, srcCh, false), dst.ID(), portOf(t, dst, typ, dstCh, true)) {
		t.Fatalf("connect %d:%d -> %d:%d failed", src.ID(), srcCh, dst.ID(), dstCh)
	}
}

func hostBlock(channels int, value float64) *buffer.Audio {
	a := buffer.NewAudio(channels, testBlock)
	for ch := range channels {
		a.Fill(ch, value)
	}

	return a
}

func position(seq *sequence, n *processor.Node) int {
	for i, m := range seq.nodes {
		if m == n {
			return i
		}
	}

	return -1
}
