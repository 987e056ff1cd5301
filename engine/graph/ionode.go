package graph

import (
	"strconv"

	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// IOKind names the boundary pseudo-nodes that exchange audio and MIDI
// with the host.
type IOKind int

const (
	AudioIn IOKind = iota
	AudioOut
	MidiIn
	MidiOut

	numIOKinds
)

var ioKindNames = [numIOKinds]string{"Audio Input", "Audio Output", "MIDI Input", "MIDI Output"}

var ioProcessorKinds = [numIOKinds]processor.Kind{
	processor.KindAudioInput,
	processor.KindAudioOutput,
	processor.KindMidiInput,
	processor.KindMidiOutput,
}

func (k IOKind) String() string {
	if k < 0 || k >= numIOKinds {
		return "unknown"
	}

	return ioKindNames[k]
}

// Valid reports whether k names a pseudo-node.
func (k IOKind) Valid() bool { return k >= 0 && k < numIOKinds }

// ioNode moves audio or MIDI between the host block and the graph.
type ioNode struct {
	g    *Graph
	kind IOKind
}

func (n *ioNode) Kind() processor.Kind { return ioProcessorKinds[n.kind] }

func (n *ioNode) Ports() *port.List {
	b := port.NewBuilder()

	switch n.kind {
	case AudioIn:
		for i := range n.g.audioIns {
			s := strconv.Itoa(i + 1)
			b.Add(port.Audio, false, "in_"+s, "In "+s)
		}
	case AudioOut:
		for i := range n.g.audioOuts {
			s := strconv.Itoa(i + 1)
			b.Add(port.Audio, true, "out_"+s, "Out "+s)
		}
	case MidiIn:
		b.Add(port.Midi, false, "midi_in", "MIDI In")
	case MidiOut:
		b.Add(port.Midi, true, "midi_out", "MIDI Out")
	}

	return b.List()
}

func (n *ioNode) Prepare(processor.PrepareContext) error { return nil }
func (n *ioNode) Release()                              {}

func (n *ioNode) Render(b *processor.Block) {
	g := n.g

	switch n.kind {
	case AudioIn:
		host := g.hostAudio
		for ch := range b.AudioOuts {
			var src []float64
			if host != nil {
				src = host.Channel(ch)
			}
			b.Audio.CopyChannel(ch, src)
		}
	case AudioOut:
		host := g.hostAudio
		if host == nil {
			return
		}
		for ch := range host.NumChannels() {
			host.CopyChannel(ch, b.Audio.Channel(ch))
		}
	case MidiIn:
		if b.Midi.Size() == 0 {
			return
		}
		out := b.Midi.WriteBuffer(0)
		if g.hostMidi != nil {
			out.CopyFrom(g.hostMidi)
		} else {
			out.Clear()
		}
	case MidiOut:
		if g.hostMidi != nil && b.Midi.Size() > 0 {
			g.hostMidi.CopyFrom(b.Midi.ReadBuffer(0))
		}
	}
}

// AddIONodes adds whichever boundary pseudo-nodes are missing.
func (g *Graph) AddIONodes() {
	for k := range numIOKinds {
		if g.ioNodes[k] != nil {
			continue
		}

		n := processor.New(&ioNode{g: g, kind: k})
		n.SetName(k.String())
		if g.AddNode(n, 0) != 0 {
			g.ioNodes[k] = n
		}
	}
}

// IONode returns the pseudo-node of kind k, or nil.
func (g *Graph) IONode(k IOKind) *processor.Node {
	if !k.Valid() {
		return nil
	}

	return g.ioNodes[k]
}

// IOChannels returns the number of host audio inputs and outputs.
func (g *Graph) IOChannels() (int, int) { return g.audioIns, g.audioOuts }

// SetIOChannels changes the number of host audio channels. The audio
// pseudo-nodes and, for a nested graph, the owning node refresh their
// ports; connections to ports that vanished are removed.
func (g *Graph) SetIOChannels(audioIns, audioOuts int) {
	audioIns, audioOuts = max(audioIns, 0), max(audioOuts, 0)
	if audioIns == g.audioIns && audioOuts == g.audioOuts {
		return
	}

	g.audioIns, g.audioOuts = audioIns, audioOuts

	for _, k := range []IOKind{AudioIn, AudioOut} {
		if n := g.ioNodes[k]; n != nil {
			n.RefreshPorts()
		}
	}

	if g.owner != nil {
		g.owner.RefreshPorts()
	}
}
