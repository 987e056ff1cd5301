package patch

import (
	"strconv"

	"github.com/cwbudde/algo-graph/engine/graph"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/nodes"
)

// Describe captures g as a patch, using graph ids as patch ids. Nodes
// without a registry type, such as nested graphs, are left out together
// with their connections.
func Describe(g *graph.Graph) *Patch {
	cfg := g.PlayConfig()
	ins, outs := g.IOChannels()

	p := &Patch{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Inputs:     ins,
		Outputs:    outs,
	}

	typeNames := make(map[*processor.Node]string)
	for name, kind := range ioTypes {
		if n := g.IONode(kind); n != nil {
			typeNames[n] = name
		}
	}

	kept := make(map[uint32]bool)

	for _, n := range g.Nodes() {
		typ, io := typeNames[n]
		if !io {
			typ = nodes.TypeOf(n)
		}
		if typ == "" {
			continue
		}

		kept[n.ID()] = true

		if io {
			p.Nodes = append(p.Nodes, Node{ID: n.ID(), Type: typ})
			continue
		}

		p.Nodes = append(p.Nodes, describeNode(n, typ))
	}

	for _, c := range g.Connections() {
		if !kept[c.SourceNode] || !kept[c.DestNode] {
			continue
		}

		p.Connections = append(p.Connections, Connection{
			From:     c.SourceNode,
			FromPort: portRef(g.NodeForID(c.SourceNode), c.SourcePort),
			To:       c.DestNode,
			ToPort:   portRef(g.NodeForID(c.DestNode), c.DestPort),
		})
	}

	return p
}

func describeNode(n *processor.Node, typ string) Node {
	d := Node{
		ID:        n.ID(),
		Type:      typ,
		Disabled:  !n.IsEnabled(),
		Bypassed:  n.IsBypassed(),
		Muted:     n.IsMuted(),
		Transpose: n.Transpose(),
		Programs:  n.MidiProgramsEnabled(),
	}

	if n.Name() != typ {
		d.Name = n.Name()
	}

	if gain := n.Gain(); gain != 1 {
		d.Gain = &gain
	}

	if keys := n.KeyRange(); keys != midi.FullKeyRange {
		d.Keys = []int{int(keys.Low), int(keys.High)}
	}

	if set := n.MidiChannels(); set != midi.AllChannels {
		for ch := range uint8(16) {
			if set.Has(ch) {
				d.Channels = append(d.Channels, int(ch)+1)
			}
		}
	}

	if prog := n.MidiProgram(); prog != processor.NoProgram {
		d.Program = &prog
	}

	for _, p := range n.Parameters() {
		if !p.Port().Input {
			continue
		}
		if d.Params == nil {
			d.Params = make(map[string]float64)
		}
		d.Params[p.Symbol()] = p.Get()
	}

	return d
}

func portRef(n *processor.Node, index uint32) string {
	if n != nil {
		if desc, ok := n.Ports().Port(index); ok && desc.Symbol != "" {
			return desc.Symbol
		}
	}

	return strconv.FormatUint(uint64(index), 10)
}
