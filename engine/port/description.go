package port

import "math"

// InvalidPort is returned by lookups that find no port.
const InvalidPort = uint32(math.MaxUint32)

// InvalidChannel is returned by lookups that find no channel.
const InvalidChannel = uint32(math.MaxUint32)

// Description is one port on one node. Descriptions are values: a layout
// change replaces the whole list rather than editing ports in place.
type Description struct {
	Type Type
	// Index is the absolute position in the node's port list.
	Index uint32
	// Channel is the position among ports of the same type and direction.
	Channel uint32
	Symbol  string
	Name    string
	Label   string
	Input   bool

	// Control ports only.
	Min     float64
	Max     float64
	Default float64
}

// IsOutput reports whether the port is an output.
func (d Description) IsOutput() bool { return !d.Input }

// sameSlot reports whether d and o occupy the same (type, channel, input)
// triple.
func (d Description) sameSlot(o Description) bool {
	return d.Type == o.Type && d.Channel == o.Channel && d.Input == o.Input
}
