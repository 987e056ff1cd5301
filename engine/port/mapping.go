package port

// ChannelMapping maps (type, channel) to absolute port index for one
// direction.
type ChannelMapping struct {
	ports [NumTypes][]uint32
}

// NewChannelMapping builds the mapping for the inputs (input=true) or
// outputs of l.
func NewChannelMapping(l *List, input bool) ChannelMapping {
	var m ChannelMapping
	if l == nil {
		return m
	}

	// l is index ordered, so each per-type list comes out ascending.
	for _, p := range l.ports {
		if p.Input == input {
			m.AddPort(p.Type, p.Index)
		}
	}

	return m
}

// AddPort appends index to the type's channel list. Callers add ports in
// ascending index order per type.
func (m *ChannelMapping) AddPort(t Type, index uint32) {
	i := t.index()
	m.ports[i] = append(m.ports[i], index)
}

// Port returns the port for a channel without bounds checking. An
// out-of-range channel panics; use PortChecked when the channel is
// untrusted.
func (m *ChannelMapping) Port(t Type, channel int) uint32 {
	return m.ports[t][channel]
}

// PortChecked returns the port for a channel, or InvalidPort.
func (m *ChannelMapping) PortChecked(t Type, channel int) uint32 {
	if !t.Valid() || channel < 0 || channel >= len(m.ports[t]) {
		return InvalidPort
	}

	return m.ports[t][channel]
}

// NumChannels returns the number of mapped channels of type t.
func (m *ChannelMapping) NumChannels(t Type) int {
	if !t.Valid() {
		return 0
	}

	return len(m.ports[t])
}

// ChannelConfig pairs the input and output mappings of a node.
type ChannelConfig struct {
	Inputs  ChannelMapping
	Outputs ChannelMapping
}

// NewChannelConfig builds both mappings from one port list snapshot.
func NewChannelConfig(l *List) ChannelConfig {
	return ChannelConfig{
		Inputs:  NewChannelMapping(l, true),
		Outputs: NewChannelMapping(l, false),
	}
}

// Mapping returns the input or output mapping.
func (c *ChannelConfig) Mapping(input bool) *ChannelMapping {
	if input {
		return &c.Inputs
	}

	return &c.Outputs
}
