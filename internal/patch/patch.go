// Package patch reads and writes flat graph descriptions in YAML and
// applies them to a graph.
//
// A patch lists nodes by id and connections as four-element sequences
// [source node, source port, destination node, destination port]. Ports
// are given by symbol or by absolute index. Node ids are local to the
// patch; the graph assigns its own ids when the patch is built.
package patch

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Reserved node types for the graph's boundary pseudo-nodes.
const (
	TypeAudioIn  = "_audio_in"
	TypeAudioOut = "_audio_out"
	TypeMidiIn   = "_midi_in"
	TypeMidiOut  = "_midi_out"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("patch: invalid patch")

// Patch is the root of a graph description.
type Patch struct {
	SampleRate  float64      `yaml:"sample_rate,omitempty"`
	BlockSize   int          `yaml:"block_size,omitempty"`
	Inputs      int          `yaml:"inputs,omitempty"`
	Outputs     int          `yaml:"outputs,omitempty"`
	Nodes       []Node       `yaml:"nodes"`
	Connections []Connection `yaml:"connections,omitempty,flow"`
}

// Node describes one processor and its settings.
type Node struct {
	ID        uint32             `yaml:"id"`
	Type      string             `yaml:"type"`
	Name      string             `yaml:"name,omitempty"`
	Disabled  bool               `yaml:"disabled,omitempty"`
	Bypassed  bool               `yaml:"bypassed,omitempty"`
	Muted     bool               `yaml:"muted,omitempty"`
	Gain      *float64           `yaml:"gain,omitempty"`
	Keys      []int              `yaml:"keys,omitempty,flow"`
	Channels  []int              `yaml:"channels,omitempty,flow"`
	Transpose int                `yaml:"transpose,omitempty"`
	Program   *int               `yaml:"program,omitempty"`
	Programs  bool               `yaml:"programs,omitempty"`
	Params    map[string]float64 `yaml:"params,omitempty"`
}

// IsIO reports whether the node stands for a boundary pseudo-node.
func (n Node) IsIO() bool {
	switch n.Type {
	case TypeAudioIn, TypeAudioOut, TypeMidiIn, TypeMidiOut:
		return true
	}

	return false
}

// Connection joins an output port to an input port.
type Connection struct {
	From     uint32
	FromPort string
	To       uint32
	ToPort   string
}

func (c Connection) String() string {
	return fmt.Sprintf("%d:%s -> %d:%s", c.From, c.FromPort, c.To, c.ToPort)
}

// UnmarshalYAML reads the [from, port, to, port] form.
func (c *Connection) UnmarshalYAML(unmarshal func(any) error) error {
	var raw []any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if len(raw) != 4 {
		return fmt.Errorf("%w: connection needs 4 elements, got %d", ErrInvalid, len(raw))
	}

	from, err := nodeRef(raw[0])
	if err != nil {
		return err
	}

	to, err := nodeRef(raw[2])
	if err != nil {
		return err
	}

	c.From, c.FromPort = from, fmt.Sprint(raw[1])
	c.To, c.ToPort = to, fmt.Sprint(raw[3])

	return nil
}

// MarshalYAML writes the [from, port, to, port] form.
func (c Connection) MarshalYAML() (any, error) {
	return []any{c.From, portValue(c.FromPort), c.To, portValue(c.ToPort)}, nil
}

func nodeRef(v any) (uint32, error) {
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case uint64:
		n = int(t)
	default:
		return 0, fmt.Errorf("%w: node reference %v is not a number", ErrInvalid, v)
	}

	if n <= 0 {
		return 0, fmt.Errorf("%w: node reference %d", ErrInvalid, n)
	}

	return uint32(n), nil
}

func portValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	return s
}

// Parse decodes and validates a patch.
func Parse(data []byte) (*Patch, error) {
	var p Patch
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("patch: decode: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Read decodes a patch from r.
func Read(r io.Reader) (*Patch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("patch: read: %w", err)
	}

	return Parse(data)
}

// Marshal encodes a patch as YAML.
func Marshal(p *Patch) ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("patch: encode: %w", err)
	}

	return data, nil
}

// Validate checks ids, types and connection endpoints. It does not check
// port names, which depend on the node types.
func (p *Patch) Validate() error {
	if p.SampleRate < 0 || p.BlockSize < 0 || p.Inputs < 0 || p.Outputs < 0 {
		return fmt.Errorf("%w: negative play config", ErrInvalid)
	}

	ids := make(map[uint32]bool, len(p.Nodes))
	seenIO := make(map[string]bool)

	for _, n := range p.Nodes {
		if n.ID == 0 {
			return fmt.Errorf("%w: node %q has no id", ErrInvalid, n.Type)
		}

		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate node id %d", ErrInvalid, n.ID)
		}
		ids[n.ID] = true

		if n.Type == "" {
			return fmt.Errorf("%w: node %d has no type", ErrInvalid, n.ID)
		}

		if n.IsIO() {
			if seenIO[n.Type] {
				return fmt.Errorf("%w: duplicate %s node", ErrInvalid, n.Type)
			}
			seenIO[n.Type] = true
		}

		if n.Keys != nil && len(n.Keys) != 2 {
			return fmt.Errorf("%w: node %d keys need [low, high]", ErrInvalid, n.ID)
		}

		for _, ch := range n.Channels {
			if ch < 1 || ch > 16 {
				return fmt.Errorf("%w: node %d midi channel %d", ErrInvalid, n.ID, ch)
			}
		}
	}

	for _, c := range p.Connections {
		if !ids[c.From] || !ids[c.To] {
			return fmt.Errorf("%w: connection %v references an unknown node", ErrInvalid, c)
		}
	}

	return nil
}
