package graph

import (
	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/internal/assert"
)

type portKey struct {
	node uint32
	port uint32
}

// source is one incoming arc resolved against the source node's layout.
type source struct {
	key  portKey
	typ  port.Type
	node *processor.Node
	fade bool
}

// compiler turns the graph's nodes and connections into a sequence.
// Scratch buffers are assigned by liveness: a node output keeps its buffer
// until its last consumer has read it, then the buffer is reused.
type compiler struct {
	g   *Graph
	seq *sequence

	incoming map[portKey][]source
	uses     map[portKey]int

	audioOut   map[portKey]int
	midiOut    map[portKey]int
	freeAudio  []int
	numAudio   int
	freeMidi   []int
	numMidi    int
	audioLists [][]int
	midiLists  [][]int
}

// order sorts the nodes topologically with Kahn's algorithm. Among ready
// nodes, input pseudo-nodes go first, output pseudo-nodes last and the
// rest keep insertion order.
func (g *Graph) order() []*processor.Node {
	indegree := make(map[uint32]int, len(g.nodes))
	outgoing := make(map[uint32][]uint32, len(g.nodes))
	position := make(map[uint32]int, len(g.nodes))

	for i, n := range g.nodes {
		indegree[n.ID()] = 0
		position[n.ID()] = i
	}

	seen := map[[2]uint32]bool{}
	for _, c := range g.connections {
		edge := [2]uint32{c.SourceNode, c.DestNode}
		if seen[edge] || c.SourceNode == c.DestNode {
			continue
		}
		seen[edge] = true
		outgoing[c.SourceNode] = append(outgoing[c.SourceNode], c.DestNode)
		indegree[c.DestNode]++
	}

	rank := func(n *processor.Node) int {
		switch n.Kind() {
		case processor.KindAudioInput, processor.KindMidiInput:
			return 0
		case processor.KindAudioOutput, processor.KindMidiOutput:
			return 2
		default:
			return 1
		}
	}

	ready := make([]*processor.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if indegree[n.ID()] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]*processor.Node, 0, len(g.nodes))
	for len(ready) > 0 {
		best := 0
		for i, n := range ready[1:] {
			b := ready[best]
			if rank(n) < rank(b) || rank(n) == rank(b) && position[n.ID()] < position[b.ID()] {
				best = i + 1
			}
		}

		n := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, n)

		for _, id := range outgoing[n.ID()] {
			indegree[id]--
			if indegree[id] == 0 {
				ready = append(ready, g.byID[id])
			}
		}
	}

	assert.That(len(order) == len(g.nodes), "graph: cycle in node graph")

	return order
}

func (g *Graph) compile() *sequence {
	c := &compiler{
		g:        g,
		seq:      &sequence{blockSize: g.config.BlockSize},
		incoming: map[portKey][]source{},
		uses:     map[portKey]int{},
		audioOut: map[portKey]int{},
		midiOut:  map[portKey]int{},
	}

	for _, conn := range g.connections {
		if !g.IsConnectionLegal(conn) {
			continue
		}

		src := g.byID[conn.SourceNode]
		key := portKey{conn.SourceNode, conn.SourcePort}
		_, known := g.lastConns[conn]

		dst := portKey{conn.DestNode, conn.DestPort}
		c.incoming[dst] = append(c.incoming[dst], source{
			key:  key,
			typ:  portType(src, conn.SourcePort),
			node: src,
			fade: g.lastConns != nil && !known,
		})
		c.uses[key]++
	}

	for _, n := range g.order() {
		c.addNode(n)
	}

	c.allocate()

	return c.seq
}

func (c *compiler) addNode(n *processor.Node) {
	id := n.ID()
	layout := n.Ports()
	cfg := port.NewChannelConfig(layout)

	block := &processor.Block{
		AudioIns:  cfg.Inputs.NumChannels(port.Audio),
		AudioOuts: cfg.Outputs.NumChannels(port.Audio),
		CVIns:     cfg.Inputs.NumChannels(port.CV),
		CVOuts:    cfg.Outputs.NumChannels(port.CV),
		MidiIns:   cfg.Inputs.NumChannels(port.Midi),
		MidiOuts:  cfg.Outputs.NumChannels(port.Midi),
	}

	audio := c.audioChannels(id, &cfg, port.Audio, block.AudioIns, block.AudioOuts)
	cv := c.audioChannels(id, &cfg, port.CV, block.CVIns, block.CVOuts)
	midiBufs := c.midiChannels(id, &cfg, block.MidiIns, block.MidiOuts)

	for _, p := range layout.Ports() {
		if p.Type != port.Control || !p.Input {
			continue
		}

		to := n.ParameterForPort(p.Index)
		if to == nil {
			continue
		}

		for _, s := range c.incoming[portKey{id, p.Index}] {
			if s.typ != port.Control {
				continue
			}
			if from := s.node.ParameterForPort(s.key.port); from != nil {
				c.emit(op{kind: opControlToControl, from: from, to: to})
			}
		}
	}

	c.audioLists = append(c.audioLists, audio, cv)
	c.midiLists = append(c.midiLists, midiBufs)
	c.emit(op{kind: opRender, node: n, block: block})
	c.seq.nodes = append(c.seq.nodes, n)

	switch n.Kind() {
	case processor.KindAudioOutput:
		c.seq.hasAudioOut = true
	case processor.KindMidiOutput:
		c.seq.hasMidiOut = true
	}

	c.retireOutputs(id, &cfg, port.Audio, audio, block.AudioOuts, c.audioOut, c.releaseAudio)
	c.retireOutputs(id, &cfg, port.CV, cv, block.CVOuts, c.audioOut, c.releaseAudio)
	c.retireOutputs(id, &cfg, port.Midi, midiBufs, block.MidiOuts, c.midiOut, c.releaseMidi)
}

// audioChannels assigns scratch channels to a node's audio or CV ports.
// Channel i serves input i and output i.
func (c *compiler) audioChannels(id uint32, cfg *port.ChannelConfig, t port.Type, ins, outs int) []int {
	chans := make([]int, max(ins, outs))

	for ch := range chans {
		if ch >= ins {
			chans[ch] = c.allocAudio()
			c.emit(op{kind: opClearAudio, dst: chans[ch]})

			continue
		}

		p := cfg.Inputs.Port(t, ch)
		chans[ch] = c.audioInput(c.incoming[portKey{id, p}], t)
	}

	return chans
}

func (c *compiler) audioInput(sources []source, t port.Type) int {
	var buffered, controls []source
	for _, s := range sources {
		switch {
		case s.typ == port.Control && t == port.CV:
			controls = append(controls, s)
		case port.CanConnect(s.typ, t) && s.typ != port.Control:
			if _, ok := c.audioOut[s.key]; ok {
				buffered = append(buffered, s)
			}
		}
	}

	if len(controls) == 0 && len(buffered) == 1 && c.uses[buffered[0].key] == 1 && !buffered[0].fade {
		s := buffered[0]
		ch := c.audioOut[s.key]
		delete(c.audioOut, s.key)
		c.uses[s.key] = 0

		return ch
	}

	dst := c.allocAudio()
	if len(buffered) == 0 && len(controls) == 0 {
		c.emit(op{kind: opClearAudio, dst: dst})
		return dst
	}

	first := true
	for _, s := range buffered {
		kind := opAddAudio
		if first {
			kind = opCopyAudio
		}
		first = false

		c.emit(op{kind: kind, src: c.audioOut[s.key], dst: dst, fade: s.fade})
		c.consume(s.key, c.audioOut, c.releaseAudio)
	}

	for _, s := range controls {
		c.emit(op{kind: opControlToCV, dst: dst, add: !first, from: s.node.ParameterForPort(s.key.port)})
		first = false
	}

	return dst
}

func (c *compiler) midiChannels(id uint32, cfg *port.ChannelConfig, ins, outs int) []int {
	n := max(ins, outs)
	assert.That(n <= midi.MaxReferencedBuffers, "graph: node has too many MIDI ports")
	bufs := make([]int, min(n, midi.MaxReferencedBuffers))

	for ch := range bufs {
		if ch >= ins {
			bufs[ch] = c.allocMidi()
			c.emit(op{kind: opClearMidi, dst: bufs[ch]})

			continue
		}

		p := cfg.Inputs.Port(port.Midi, ch)
		bufs[ch] = c.midiInput(c.incoming[portKey{id, p}])
	}

	return bufs
}

func (c *compiler) midiInput(sources []source) int {
	var live []source
	for _, s := range sources {
		if s.typ != port.Midi {
			continue
		}
		if _, ok := c.midiOut[s.key]; ok {
			live = append(live, s)
		}
	}

	if len(live) == 1 && c.uses[live[0].key] == 1 {
		s := live[0]
		b := c.midiOut[s.key]
		delete(c.midiOut, s.key)
		c.uses[s.key] = 0

		return b
	}

	dst := c.allocMidi()
	if len(live) == 0 {
		c.emit(op{kind: opClearMidi, dst: dst})
		return dst
	}

	for i, s := range live {
		kind := opAddMidi
		if i == 0 {
			kind = opCopyMidi
		}

		c.emit(op{kind: kind, src: c.midiOut[s.key], dst: dst})
		c.consume(s.key, c.midiOut, c.releaseMidi)
	}

	return dst
}

// consume records one read of an output; the last read frees its buffer.
func (c *compiler) consume(key portKey, owners map[portKey]int, release func(int)) {
	c.uses[key]--
	if c.uses[key] > 0 {
		return
	}

	if b, ok := owners[key]; ok {
		delete(owners, key)
		release(b)
	}
}

// retireOutputs keeps the buffers of outputs that have consumers and
// frees the rest, including channels that only served inputs.
func (c *compiler) retireOutputs(id uint32, cfg *port.ChannelConfig, t port.Type, chans []int, outs int, owners map[portKey]int, release func(int)) {
	for ch, b := range chans {
		if ch < outs {
			key := portKey{id, cfg.Outputs.Port(t, ch)}
			if c.uses[key] > 0 {
				owners[key] = b
				continue
			}
		}

		release(b)
	}
}

func (c *compiler) emit(o op) {
	c.seq.ops = append(c.seq.ops, o)
}

func (c *compiler) allocAudio() int {
	if n := len(c.freeAudio); n > 0 {
		b := c.freeAudio[n-1]
		c.freeAudio = c.freeAudio[:n-1]

		return b
	}

	c.numAudio++

	return c.numAudio - 1
}

func (c *compiler) releaseAudio(b int) { c.freeAudio = append(c.freeAudio, b) }

func (c *compiler) allocMidi() int {
	if n := len(c.freeMidi); n > 0 {
		b := c.freeMidi[n-1]
		c.freeMidi = c.freeMidi[:n-1]

		return b
	}

	c.numMidi++

	return c.numMidi - 1
}

func (c *compiler) releaseMidi(b int) { c.freeMidi = append(c.freeMidi, b) }

// allocate creates the scratch buffers and binds every render op's block
// to them.
func (c *compiler) allocate() {
	s := c.seq
	g := c.g

	s.audio = make([][]float64, c.numAudio)
	for i := range s.audio {
		s.audio[i] = g.pool.Get(s.blockSize)
	}
	s.scratch = buffer.FromChannels(s.audio)

	s.midi = make([]*midi.Buffer, c.numMidi)
	for i := range s.midi {
		s.midi[i] = g.midiBuffer()
	}

	r := 0
	for i := range s.ops {
		o := &s.ops[i]
		if o.kind != opRender {
			continue
		}

		o.block.Audio = buffer.FromChannels(c.channels(c.audioLists[2*r]))
		o.block.CV = buffer.FromChannels(c.channels(c.audioLists[2*r+1]))

		bufs := make([]*midi.Buffer, len(c.midiLists[r]))
		for j, b := range c.midiLists[r] {
			bufs[j] = s.midi[b]
		}
		o.block.Midi = midi.NewPipe(bufs...)

		r++
	}
}

func (c *compiler) channels(indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, b := range indices {
		out[i] = c.seq.audio[b]
	}

	return out
}

func (g *Graph) midiBuffer() *midi.Buffer {
	if n := len(g.freeMidi); n > 0 {
		b := g.freeMidi[n-1]
		g.freeMidi = g.freeMidi[:n-1]
		b.Clear()

		return b
	}

	return midi.NewBuffer(midi.DefaultMaxEvents, midi.DefaultMaxBytes)
}
