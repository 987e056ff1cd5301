package processor

// Kind tags what a node is, so hot paths can branch on a field instead of
// probing the implementation's type.
type Kind int

const (
	KindAudioProcessor Kind = iota
	KindMidiProcessor
	KindInstrument
	KindGraph
	KindAudioInput
	KindAudioOutput
	KindMidiInput
	KindMidiOutput
)

var kindNames = [...]string{
	"audio-processor",
	"midi-processor",
	"instrument",
	"graph",
	"audio-input",
	"audio-output",
	"midi-input",
	"midi-output",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}

	return kindNames[k]
}

// IsIO reports whether k is one of the graph boundary pseudo-node kinds.
func (k Kind) IsIO() bool {
	return k >= KindAudioInput && k <= KindMidiOutput
}
