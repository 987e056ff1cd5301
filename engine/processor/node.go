package processor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/cwbudde/algo-graph/engine/async"
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/program"
	"github.com/cwbudde/algo-graph/engine/signal"
)

// ErrPrepareFailed wraps errors returned by Impl.Prepare.
var ErrPrepareFailed = errors.New("processor: prepare failed")

// NoProgram is the MIDI program value of a node that has none selected.
const NoProgram = -1

// Node is a schedulable unit of the audio graph.
type Node struct {
	impl     Impl
	kind     Kind
	bypasser Bypasser
	latency  LatencyReporter
	params   Parameterised
	state    StateHolder

	id    atomic.Uint32
	valid atomic.Bool

	enabled   atomic.Bool
	bypassed  atomic.Bool
	muted     atomic.Bool
	muteInput atomic.Bool
	suspended atomic.Bool
	prepared  atomic.Bool

	gain      core.AtomicFloat
	inputGain core.AtomicFloat
	// Render thread only.
	lastGain      float64
	lastInputGain float64

	keyLow          atomic.Uint32
	keyHigh         atomic.Uint32
	transpose       atomic.Int32
	midiChannels    atomic.Uint32
	midiProgram     atomic.Int32
	programsEnabled atomic.Bool

	// propertyLock guards the fields below it.
	propertyLock  sync.Mutex
	name          string
	ports         *port.List
	channelConfig port.ChannelConfig
	controlByPort map[uint32]*param.ControlPort
	sampleRate    float64
	blockSize     int
	parent        Parent
	logger        *slog.Logger
	programStore  program.Store
	programKey    string
	programNames  map[int]string

	loop        atomic.Pointer[async.Loop]
	reloadTask  func()
	saveTask    func()
	portReset   func()
	resetQueued atomic.Bool

	// PortsChanged fires on the control thread after the port layout was
	// replaced.
	PortsChanged signal.Signal[*Node]
	// EnablementChanged fires on the goroutine that called SetEnabled.
	EnablementChanged signal.Signal[*Node]
	// BypassChanged fires on the goroutine that called SetBypassed.
	BypassChanged signal.Signal[*Node]
	// MuteChanged fires on the goroutine that called SetMuted.
	MuteChanged signal.Signal[*Node]
	// ProgramChanged fires on the control thread after a program was
	// loaded into the node.
	ProgramChanged signal.Signal[int]
}

// New wraps impl in a Node. The node starts enabled, unmuted, at unity
// gain, accepting all MIDI channels and keys, with the layout impl.Ports
// returns.
func New(impl Impl) *Node {
	n := &Node{
		impl:          impl,
		kind:          impl.Kind(),
		ports:         port.NewList(),
		controlByPort: map[uint32]*param.ControlPort{},
		programNames:  map[int]string{},
		logger:        slog.Default(),
	}

	n.bypasser, _ = impl.(Bypasser)
	n.latency, _ = impl.(LatencyReporter)
	n.params, _ = impl.(Parameterised)
	n.state, _ = impl.(StateHolder)

	n.valid.Store(true)
	n.enabled.Store(true)
	n.gain.Store(1)
	n.inputGain.Store(1)
	n.lastGain = 1
	n.lastInputGain = 1
	n.keyLow.Store(uint32(midi.FullKeyRange.Low))
	n.keyHigh.Store(uint32(midi.FullKeyRange.High))
	n.midiChannels.Store(uint32(midi.AllChannels))
	n.midiProgram.Store(NoProgram)

	self := weak.Make(n)
	n.reloadTask = func() {
		if n := live(self); n != nil {
			n.runProgramTask(n.LoadMidiProgramNow)
		}
	}
	n.saveTask = func() {
		if n := live(self); n != nil {
			n.runProgramTask(n.SaveMidiProgramNow)
		}
	}
	n.portReset = func() {
		if n := live(self); n != nil {
			n.resetQueued.Store(false)
			n.RefreshPorts()
		}
	}

	if a, ok := impl.(Attacher); ok {
		a.Attached(n)
	}

	n.setPorts(impl.Ports(), false)

	return n
}

// live resolves a weak node reference for a deferred task, returning nil
// when the node was collected or disposed in the meantime.
func live(p weak.Pointer[Node]) *Node {
	n := p.Value()
	if n == nil || !n.IsValid() {
		return nil
	}

	return n
}

// Impl returns the wrapped implementation.
func (n *Node) Impl() Impl { return n.impl }

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// IsGraph reports whether the node is a nested graph.
func (n *Node) IsGraph() bool { return n.kind == KindGraph }

// IsIONode reports whether the node is a graph boundary pseudo-node.
func (n *Node) IsIONode() bool { return n.kind.IsIO() }

// ID returns the graph-assigned id, or 0 for a detached node.
func (n *Node) ID() uint32 { return n.id.Load() }

// SetID assigns the node id. Ids are assigned once; later calls with a
// different id are refused.
func (n *Node) SetID(id uint32) bool {
	if id == 0 {
		return false
	}

	return n.id.CompareAndSwap(0, id) || n.id.Load() == id
}

// IsValid reports whether the node is still usable. Disposed nodes are
// skipped by pending deferred work.
func (n *Node) IsValid() bool { return n.valid.Load() }

// Invalidate marks the node as removed. Pending deferred work skips it,
// but it keeps rendering until Dispose, so a graph can invalidate a node
// while the render thread may still be using it.
func (n *Node) Invalidate() {
	n.valid.Store(false)
}

// Dispose invalidates the node and releases its resources. A disposed node
// cannot be reused.
func (n *Node) Dispose() {
	n.Invalidate()
	n.Unprepare()
}

// Name returns the display name.
func (n *Node) Name() string {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.name
}

// SetName sets the display name.
func (n *Node) SetName(name string) {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	n.name = name
}

// SetLogger sets the logger used for control-thread diagnostics.
func (n *Node) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}

	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	n.logger = l
}

func (n *Node) log() *slog.Logger {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.logger.With("node", n.id.Load(), "name", n.name)
}

// Ports returns a copy of the current port layout.
func (n *Node) Ports() *port.List {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.ports.Clone()
}

// Port returns a copy of the port at index.
func (n *Node) Port(index uint32) (port.Description, bool) {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.ports.Port(index)
}

// NumPorts returns the number of ports.
func (n *Node) NumPorts() int {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.ports.Len()
}

// NumPortsOf returns the number of ports of one type and direction.
func (n *Node) NumPortsOf(t port.Type, input bool) int {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.ports.Count(t, input)
}

// ChannelConfig returns the channel mappings of the current layout.
func (n *Node) ChannelConfig() port.ChannelConfig {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.channelConfig
}

// RefreshPorts rebuilds the port layout from the implementation and fires
// PortsChanged. Control thread only.
func (n *Node) RefreshPorts() {
	n.setPorts(n.impl.Ports(), true)
}

// SetPorts replaces the port layout and fires PortsChanged. Control thread
// only.
func (n *Node) SetPorts(l *port.List) {
	n.setPorts(l, true)
}

// TriggerPortReset schedules RefreshPorts on the control loop. Safe from
// the render thread; repeated calls before the loop runs coalesce.
func (n *Node) TriggerPortReset() bool {
	if !n.resetQueued.CompareAndSwap(false, true) {
		return true
	}

	if !n.post(n.portReset) {
		n.resetQueued.Store(false)
		return false
	}

	return true
}

func (n *Node) setPorts(l *port.List, notify bool) {
	if l == nil {
		l = port.NewList()
	}

	var params []*param.ControlPort
	if n.params != nil {
		params = n.params.Parameters()
	}

	n.propertyLock.Lock()
	n.ports.Swap(l)
	n.channelConfig = port.NewChannelConfig(n.ports)
	n.controlByPort = make(map[uint32]*param.ControlPort, len(params))
	for _, p := range params {
		desc := p.Port()
		if cur, ok := n.ports.Port(desc.Index); ok && cur.Type == port.Control {
			n.controlByPort[desc.Index] = p
		}
	}
	n.propertyLock.Unlock()

	if notify {
		n.PortsChanged.Emit(n)
	}
}

// Parameters returns the node's control parameters.
func (n *Node) Parameters() []*param.ControlPort {
	if n.params == nil {
		return nil
	}

	return n.params.Parameters()
}

// ParameterForPort returns the parameter bound to a control port, or nil.
func (n *Node) ParameterForPort(index uint32) *param.ControlPort {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.controlByPort[index]
}

// Parameter returns the parameter with the given symbol, or nil.
func (n *Node) Parameter(symbol string) *param.ControlPort {
	for _, p := range n.Parameters() {
		if p.Symbol() == symbol {
			return p
		}
	}

	return nil
}

// Prepare readies the node for rendering at the given play config. It is
// called on the control thread when the node joins a graph and whenever
// the graph's play config changes. Disabled nodes are prepared too, so
// enabling one later never allocates on the render path.
//
// A failed prepare leaves the node unprepared; it then renders silence.
func (n *Node) Prepare(ctx PrepareContext) error {
	n.propertyLock.Lock()
	same := n.prepared.Load() && n.sampleRate == ctx.SampleRate && n.blockSize == ctx.BlockSize
	n.propertyLock.Unlock()

	if same {
		n.setContext(ctx)
		return nil
	}

	n.Unprepare()
	n.setContext(ctx)

	if !n.IsValid() {
		return fmt.Errorf("%w: node disposed", ErrPrepareFailed)
	}

	if err := n.impl.Prepare(ctx); err != nil {
		n.log().Warn("prepare failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPrepareFailed, err)
	}

	n.lastGain = n.gain.Load()
	n.lastInputGain = n.inputGain.Load()
	n.prepared.Store(true)

	return nil
}

func (n *Node) setContext(ctx PrepareContext) {
	loop := ctx.Loop
	if loop == nil && ctx.Parent != nil {
		loop = ctx.Parent.Loop()
	}

	if loop != nil {
		n.loop.Store(loop)
	}

	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	n.sampleRate = ctx.SampleRate
	n.blockSize = ctx.BlockSize
	n.parent = ctx.Parent
}

// Unprepare releases rendering resources.
func (n *Node) Unprepare() {
	if n.prepared.Swap(false) {
		n.impl.Release()
	}
}

// IsPrepared reports whether the node can render.
func (n *Node) IsPrepared() bool { return n.prepared.Load() }

// SampleRate returns the sample rate of the last Prepare.
func (n *Node) SampleRate() float64 {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.sampleRate
}

// BlockSize returns the block size of the last Prepare.
func (n *Node) BlockSize() int {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.blockSize
}

// Parent returns the owning graph, or nil.
func (n *Node) Parent() Parent {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.parent
}

// SetLoop sets the control loop used for deferred work on a node that is
// not in a graph.
func (n *Node) SetLoop(loop *async.Loop) {
	n.loop.Store(loop)
}

// Loop returns the control loop deferred work is posted to, or nil.
func (n *Node) Loop() *async.Loop { return n.loop.Load() }

func (n *Node) post(task func()) bool {
	loop := n.loop.Load()
	if loop == nil {
		return false
	}

	return loop.Post(task)
}

// Latency returns the processing delay in samples.
func (n *Node) Latency() int {
	if n.latency == nil {
		return 0
	}

	return n.latency.Latency()
}
