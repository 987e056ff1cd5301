package graph

import (
	"strconv"

	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// A Graph is itself a processor implementation, so wrapping it with
// processor.New nests it inside another graph. Its ports mirror the
// boundary pseudo-nodes.
var (
	_ processor.Impl            = (*Graph)(nil)
	_ processor.Attacher        = (*Graph)(nil)
	_ processor.LatencyReporter = (*Graph)(nil)
	_ processor.Parent          = (*Graph)(nil)
)

// Kind reports processor.KindGraph.
func (g *Graph) Kind() processor.Kind { return processor.KindGraph }

// Ports returns the graph's outer layout: the host audio channels plus
// one MIDI input and output.
func (g *Graph) Ports() *port.List {
	b := port.NewBuilder()
	for i := range g.audioIns {
		b.Add(port.Audio, true, "in_"+strconv.Itoa(i+1), "In "+strconv.Itoa(i+1))
	}
	for i := range g.audioOuts {
		b.Add(port.Audio, false, "out_"+strconv.Itoa(i+1), "Out "+strconv.Itoa(i+1))
	}
	b.Add(port.Midi, true, "midi_in", "MIDI In")
	b.Add(port.Midi, false, "midi_out", "MIDI Out")

	return b.List()
}

// Attached records the node wrapping a nested graph.
func (g *Graph) Attached(n *processor.Node) { g.owner = n }

// Prepare adopts the outer graph's play config and loop, prepares every
// node and compiles.
func (g *Graph) Prepare(ctx processor.PrepareContext) error {
	loop := ctx.Loop
	if loop == nil && ctx.Parent != nil {
		loop = ctx.Parent.Loop()
	}
	if loop != g.loop {
		g.setLoop(loop)
	}

	g.config = core.PlayConfig{SampleRate: ctx.SampleRate, BlockSize: ctx.BlockSize}
	for _, n := range g.nodes {
		g.prepareNode(n)
	}

	g.RebuildNow()

	return nil
}

// Release unpublishes the render sequence and unprepares every node.
func (g *Graph) Release() {
	g.rebuild.Cancel()
	g.retireAll()

	for _, n := range g.nodes {
		n.Unprepare()
	}
}

// Render runs the nested graph for one block.
func (g *Graph) Render(b *processor.Block) {
	var events *midi.Buffer
	if b.Midi != nil && b.Midi.Size() > 0 {
		events = b.Midi.ReadBuffer(0)
	}

	g.RenderBlock(b.Audio, events)
}

// AsGraph returns the graph wrapped by n.
func AsGraph(n *processor.Node) (*Graph, bool) {
	if n == nil || !n.IsGraph() {
		return nil, false
	}

	g, ok := n.Impl().(*Graph)

	return g, ok
}
