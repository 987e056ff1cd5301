package graph

import (
	"log/slog"

	"github.com/cwbudde/algo-graph/engine/async"
	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/engine/signal"
)

// Graph owns nodes and the connections between them.
type Graph struct {
	config core.PlayConfig
	loop   *async.Loop
	logger *slog.Logger
	pool   *buffer.Pool

	nodes       []*processor.Node
	byID        map[uint32]*processor.Node
	watches     map[uint32]signal.Connection
	connections []Connection
	lastNodeID  uint32
	ioNodes     [numIOKinds]*processor.Node

	audioIns  int
	audioOuts int

	// owner is the node wrapping this graph when it is nested.
	owner *processor.Node

	rebuild   *async.Updater
	compiles  uint64
	dispatch  dispatcher
	freeMidi  []*midi.Buffer
	doomed    []*processor.Node
	lastConns map[Connection]struct{}

	// Render thread only.
	hostAudio *buffer.Audio
	hostMidi  *midi.Buffer
	hostView  *buffer.Audio
	hostViews [][]float64
	midiIn    *midi.Buffer
	midiChunk *midi.Buffer
}

// maxHostChannels bounds the host channels rendered when a host block is
// split into chunks.
const maxHostChannels = 64

// New returns an empty graph with two audio inputs and outputs.
func New(opts ...Option) *Graph {
	g := &Graph{
		config:    core.DefaultPlayConfig(),
		logger:    slog.Default(),
		pool:      buffer.NewPool(),
		byID:      map[uint32]*processor.Node{},
		watches:   map[uint32]signal.Connection{},
		audioIns:  2,
		audioOuts: 2,
		hostView:  buffer.NewAudio(maxHostChannels, 0),
		hostViews: make([][]float64, maxHostChannels),
		midiIn:    midi.NewBuffer(midi.DefaultMaxEvents, midi.DefaultMaxBytes),
		midiChunk: midi.NewBuffer(midi.DefaultMaxEvents, midi.DefaultMaxBytes),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	g.setLoop(g.loop)

	return g
}

func (g *Graph) setLoop(loop *async.Loop) {
	if g.rebuild != nil {
		g.rebuild.Cancel()
	}

	g.loop = loop
	g.rebuild = async.NewUpdater(loop, g.RebuildNow)
}

// Loop returns the control loop, or nil when edits rebuild synchronously.
func (g *Graph) Loop() *async.Loop { return g.loop }

// Logger returns the graph's logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// PlayConfig returns the config nodes are prepared with.
func (g *Graph) PlayConfig() core.PlayConfig { return g.config }

// SetPlayConfig re-prepares every node for cfg and schedules a rebuild.
// Invalid configs are ignored. Nodes are re-prepared in place, so the host
// must not render while the config changes.
func (g *Graph) SetPlayConfig(cfg core.PlayConfig) bool {
	if !cfg.Valid() {
		return false
	}

	if cfg == g.config {
		return true
	}

	g.config = cfg
	for _, n := range g.nodes {
		g.prepareNode(n)
	}

	g.triggerRebuild()

	return true
}

func (g *Graph) prepareNode(n *processor.Node) {
	err := n.Prepare(processor.PrepareContext{
		SampleRate: g.config.SampleRate,
		BlockSize:  g.config.BlockSize,
		Parent:     g,
		Loop:       g.loop,
	})
	if err != nil {
		g.logger.Warn("node will render silence", "node", n.ID(), "error", err)
	}
}

// triggerRebuild coalesces a rebuild onto the loop, rebuilding in place
// when there is no loop or its queue is full.
func (g *Graph) triggerRebuild() {
	if g.loop == nil || !g.rebuild.Trigger() {
		g.RebuildNow()
	}
}

// AddNode adds n to the graph and returns its id, or 0 when n is nil,
// disposed, or belongs to another graph or id.
//
// An id of 0 allocates the next free id. An explicit id replaces any node
// that already has it, removing that node's connections.
func (g *Graph) AddNode(n *processor.Node, id uint32) uint32 {
	if n == nil || !n.IsValid() {
		return 0
	}

	if p := n.Parent(); p != nil && p != processor.Parent(g) {
		return 0
	}

	if cur := n.ID(); cur != 0 {
		if g.byID[cur] == n {
			return cur
		}
		if id != 0 && id != cur {
			return 0
		}
		id = cur
	}

	if id == 0 {
		g.lastNodeID++
		id = g.lastNodeID
		for g.byID[id] != nil {
			g.lastNodeID++
			id = g.lastNodeID
		}
	} else {
		if old := g.byID[id]; old != nil {
			g.logger.Warn("node id reused, replacing node", "node", id, "old", old.Name(), "new", n.Name())
			g.RemoveNode(id)
		}
		g.lastNodeID = max(g.lastNodeID, id)
	}

	if !n.SetID(id) {
		return 0
	}

	g.nodes = append(g.nodes, n)
	g.byID[id] = n
	g.watches[id] = n.PortsChanged.Connect(func(*processor.Node) {
		if !g.RemoveIllegalConnections() {
			g.triggerRebuild()
		}
	})

	g.prepareNode(n)
	g.triggerRebuild()

	return id
}

// RemoveNode removes a node and every connection touching it. The node is
// invalidated at once and disposed once no published sequence uses it.
func (g *Graph) RemoveNode(id uint32) bool {
	n := g.byID[id]
	if n == nil {
		return false
	}

	g.removeWhere(func(c Connection) bool { return touches(c, id) })

	if w, ok := g.watches[id]; ok {
		w.Disconnect()
		delete(g.watches, id)
	}

	delete(g.byID, id)
	for i, m := range g.nodes {
		if m == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}

	for k, io := range g.ioNodes {
		if io == n {
			g.ioNodes[k] = nil
		}
	}

	n.Invalidate()
	g.doomed = append(g.doomed, n)
	g.triggerRebuild()

	return true
}

// NodeForID returns the node with id, or nil.
func (g *Graph) NodeForID(id uint32) *processor.Node {
	return g.byID[id]
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*processor.Node {
	out := make([]*processor.Node, len(g.nodes))
	copy(out, g.nodes)

	return out
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Clear removes every node and connection.
func (g *Graph) Clear() {
	for len(g.nodes) > 0 {
		g.RemoveNode(g.nodes[len(g.nodes)-1].ID())
	}

	g.connections = nil
	g.triggerRebuild()
}

// Latency returns the summed latency of all nodes in samples.
func (g *Graph) Latency() int {
	total := 0
	for _, n := range g.nodes {
		total += n.Latency()
	}

	return total
}

// NumCompiles returns how many render sequences have been compiled.
func (g *Graph) NumCompiles() uint64 { return g.compiles }
