package patch

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cwbudde/algo-graph/engine/graph"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/engine/program"
	"github.com/cwbudde/algo-graph/nodes"
)

var ioTypes = map[string]graph.IOKind{
	TypeAudioIn:  graph.AudioIn,
	TypeAudioOut: graph.AudioOut,
	TypeMidiIn:   graph.MidiIn,
	TypeMidiOut:  graph.MidiOut,
}

// Option configures Build.
type Option func(*builder)

// WithProgramStore gives every created node a program store. Programs are
// keyed by node type and name.
func WithProgramStore(store program.Store) Option {
	return func(b *builder) { b.store = store }
}

type builder struct {
	g     *graph.Graph
	reg   *nodes.Registry
	store program.Store
	added []uint32
}

// ProgramKey returns the store key Build uses for a node.
func ProgramKey(n *processor.Node) string {
	return nodes.TypeOf(n) + "/" + n.Name()
}

// Build adds the patch's nodes and connections to g and returns the
// created nodes by patch id. Reserved IO types map to g's pseudo-nodes,
// which are added when missing.
//
// On error the processor nodes Build added are removed again; pseudo-nodes
// it added stay.
func Build(ctx context.Context, g *graph.Graph, reg *nodes.Registry, p *Patch, opts ...Option) (map[uint32]*processor.Node, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b := &builder{g: g, reg: reg}
	for _, opt := range opts {
		opt(b)
	}

	created, err := b.build(ctx, p)
	if err != nil {
		for _, id := range b.added {
			g.RemoveNode(id)
		}

		return nil, err
	}

	return created, nil
}

func (b *builder) build(ctx context.Context, p *Patch) (map[uint32]*processor.Node, error) {
	g := b.g

	if p.SampleRate > 0 || p.BlockSize > 0 {
		cfg := g.PlayConfig()
		if p.SampleRate > 0 {
			cfg.SampleRate = p.SampleRate
		}
		if p.BlockSize > 0 {
			cfg.BlockSize = p.BlockSize
		}
		if !g.SetPlayConfig(cfg) {
			return nil, fmt.Errorf("%w: play config %+v", ErrInvalid, cfg)
		}
	}

	if p.Inputs > 0 || p.Outputs > 0 {
		ins, outs := g.IOChannels()
		if p.Inputs > 0 {
			ins = p.Inputs
		}
		if p.Outputs > 0 {
			outs = p.Outputs
		}
		g.SetIOChannels(ins, outs)
	}

	created := make(map[uint32]*processor.Node, len(p.Nodes))

	for _, def := range p.Nodes {
		if kind, ok := ioTypes[def.Type]; ok {
			n := g.IONode(kind)
			if n == nil {
				g.AddIONodes()
				n = g.IONode(kind)
			}
			if n == nil {
				return nil, fmt.Errorf("patch: node %d: no %s node", def.ID, kind)
			}
			created[def.ID] = n

			continue
		}

		n, err := b.reg.Create(def.Type)
		if err != nil {
			return nil, fmt.Errorf("patch: node %d: %w", def.ID, err)
		}

		if err := b.configure(ctx, n, def); err != nil {
			n.Dispose()
			return nil, fmt.Errorf("patch: node %d: %w", def.ID, err)
		}

		id := g.AddNode(n, 0)
		if id == 0 {
			n.Dispose()
			return nil, fmt.Errorf("patch: node %d: graph refused node", def.ID)
		}
		b.added = append(b.added, id)
		created[def.ID] = n
	}

	for _, c := range p.Connections {
		src, dst := created[c.From], created[c.To]

		srcPort, err := resolvePort(src, c.FromPort)
		if err != nil {
			return nil, fmt.Errorf("patch: connection %v: %w", c, err)
		}

		dstPort, err := resolvePort(dst, c.ToPort)
		if err != nil {
			return nil, fmt.Errorf("patch: connection %v: %w", c, err)
		}

		if !g.AddConnection(src.ID(), srcPort, dst.ID(), dstPort) {
			return nil, fmt.Errorf("%w: connection %v refused", ErrInvalid, c)
		}
	}

	return created, nil
}

func (b *builder) configure(ctx context.Context, n *processor.Node, def Node) error {
	if def.Name != "" {
		n.SetName(def.Name)
	}

	for symbol, v := range def.Params {
		p := n.Parameter(symbol)
		if p == nil {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalid, symbol)
		}
		p.Set(v)
	}

	n.SetEnabled(!def.Disabled)
	n.SetBypassed(def.Bypassed)
	n.SetMuted(def.Muted)

	if def.Gain != nil {
		n.SetGain(*def.Gain)
	}

	if len(def.Keys) == 2 {
		n.SetKeyRange(def.Keys[0], def.Keys[1])
	}

	if len(def.Channels) > 0 {
		var set midi.ChannelSet
		for _, ch := range def.Channels {
			set = set.With(uint8(ch - 1))
		}
		n.SetMidiChannels(set)
	}

	n.SetTranspose(def.Transpose)
	n.SetMidiProgramsEnabled(def.Programs)

	if b.store != nil {
		n.SetMidiProgramStore(b.store, ProgramKey(n))
	}

	if def.Program == nil {
		return nil
	}

	if err := n.SetMidiProgram(*def.Program); err != nil {
		return err
	}

	if b.store == nil {
		return nil
	}

	err := n.LoadMidiProgramNow(ctx)
	if err != nil && !errors.Is(err, program.ErrNotFound) {
		return err
	}

	return nil
}

// resolvePort finds a port by symbol, falling back to an absolute index.
func resolvePort(n *processor.Node, ref string) (uint32, error) {
	ports := n.Ports()

	if idx := ports.IndexForSymbol(ref); idx != port.InvalidPort {
		return idx, nil
	}

	if i, err := strconv.ParseUint(ref, 10, 32); err == nil {
		if _, ok := ports.Port(uint32(i)); ok {
			return uint32(i), nil
		}
	}

	return 0, fmt.Errorf("%w: node %q has no port %q", ErrInvalid, n.Name(), ref)
}
