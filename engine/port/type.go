// Package port describes the typed connection points of graph nodes and the
// mappings between a port's absolute index and its channel within a
// (type, direction) group.
package port

// Type is the kind of data a port carries. The order is stable and used as
// an index into lookup tables.
type Type int

const (
	Control Type = iota
	Audio
	CV
	Atom
	Event
	Midi
	Video
	Unknown
)

// NumTypes is the size of tables indexed by Type, Unknown included.
const NumTypes = int(Unknown) + 1

var typeURIs = [NumTypes]string{
	"http://lv2plug.in/ns/lv2core#ControlPort",
	"http://lv2plug.in/ns/lv2core#AudioPort",
	"http://lv2plug.in/ns/lv2core#CVPort",
	"http://lv2plug.in/ns/ext/atom#AtomPort",
	"http://lv2plug.in/ns/ext/event#EventPort",
	"https://github.com/cwbudde/algo-graph/ns#MidiPort",
	"https://github.com/cwbudde/algo-graph/ns#VideoPort",
	"https://github.com/cwbudde/algo-graph/ns#UnknownPort",
}

var typeNames = [NumTypes]string{
	"Control", "Audio", "CV", "Atom", "Event", "MIDI", "Video", "Unknown",
}

var typeSlugs = [NumTypes]string{
	"control", "audio", "cv", "atom", "event", "midi", "video", "unknown",
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t >= Control && t <= Unknown
}

func (t Type) index() int {
	if !t.Valid() {
		return int(Unknown)
	}

	return int(t)
}

// String returns the display name.
func (t Type) String() string { return typeNames[t.index()] }

// Slug returns the short lowercase identifier.
func (t Type) Slug() string { return typeSlugs[t.index()] }

// URI returns the type's URI.
func (t Type) URI() string { return typeURIs[t.index()] }

// IsAudio reports whether t carries sample buffers (Audio or CV).
func (t Type) IsAudio() bool { return t == Audio || t == CV }

// TypeFromSlug returns the type for a slug, or Unknown.
func TypeFromSlug(slug string) Type {
	for i, s := range typeSlugs {
		if s == slug {
			return Type(i)
		}
	}

	return Unknown
}

// TypeFromURI returns the type for a URI, or Unknown.
func TypeFromURI(uri string) Type {
	for i, u := range typeURIs {
		if u == uri {
			return Type(i)
		}
	}

	return Unknown
}

// CanConnect reports whether a source port of type src may feed a
// destination port of type dst. Identical types always connect, Audio and
// Control may feed CV, and Unknown never connects. The relation is
// directional: CanConnect(CV, Audio) is false.
func CanConnect(src, dst Type) bool {
	if !src.Valid() || !dst.Valid() || src == Unknown || dst == Unknown {
		return false
	}

	if src == dst {
		return true
	}

	return dst == CV && (src == Audio || src == Control)
}

// CanConnectTo is the method form of CanConnect.
func (t Type) CanConnectTo(dst Type) bool {
	return CanConnect(t, dst)
}
