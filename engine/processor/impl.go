package processor

import (
	"github.com/cwbudde/algo-graph/engine/async"
	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
)

// Block is the set of buffers for one render call.
//
// Audio and CV hold max(inputs, outputs) channels of their port type;
// input channel i and output channel i share buffer i, so processors work
// in place. Midi holds max(inputs, outputs) buffers in the same way.
type Block struct {
	Audio  *buffer.Audio
	CV     *buffer.Audio
	Midi   *midi.Pipe
	Frames int

	AudioIns  int
	AudioOuts int
	CVIns     int
	CVOuts    int
	MidiIns   int
	MidiOuts  int
}

// Parent is the graph a node belongs to.
type Parent interface {
	Loop() *async.Loop
}

// PrepareContext is handed to Impl.Prepare.
type PrepareContext struct {
	SampleRate float64
	BlockSize  int
	Parent     Parent
	Loop       *async.Loop
}

// Impl is the node-type specific part of a Node.
type Impl interface {
	Kind() Kind
	// Ports returns a freshly built port layout.
	Ports() *port.List
	// Prepare allocates everything Render needs. It runs on the control
	// thread before rendering starts and after play config changes.
	Prepare(ctx PrepareContext) error
	// Release frees what Prepare allocated.
	Release()
	// Render processes one block in place. It must not allocate, lock or
	// block, and must write every output channel.
	Render(b *Block)
}

// Bypasser lets an Impl replace the default pass-through bypass.
type Bypasser interface {
	RenderBypassed(b *Block)
}

// LatencyReporter is implemented by Impls that delay their output.
type LatencyReporter interface {
	Latency() int
}

// Parameterised is implemented by Impls with control ports. The returned
// parameters cover control inputs and outputs and must match the current
// port layout by index.
type Parameterised interface {
	Parameters() []*param.ControlPort
}

// StateHolder is implemented by Impls whose state can be stored as MIDI
// programs. Both methods run on the control thread.
type StateHolder interface {
	State() ([]byte, error)
	SetState(data []byte) error
}

// Attacher is implemented by Impls that need their owning Node.
type Attacher interface {
	Attached(n *Node)
}
