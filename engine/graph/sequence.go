package graph

import (
	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/param"
	"github.com/cwbudde/algo-graph/engine/processor"
)

type opKind uint8

const (
	opClearAudio opKind = iota
	opCopyAudio
	opAddAudio
	opClearMidi
	opCopyMidi
	opAddMidi
	opControlToControl
	opControlToCV
	opRender
)

// op is one step of a render sequence. Audio and CV ops index the
// sequence's scratch channels, MIDI ops its scratch MIDI buffers.
type op struct {
	kind opKind
	src  int
	dst  int
	// fade ramps a new connection in from silence on its first block.
	fade bool
	// add accumulates a control value instead of overwriting.
	add  bool
	from *param.ControlPort
	to   *param.ControlPort

	node  *processor.Node
	block *processor.Block
}

// sequence is a compiled, immutable render plan plus the scratch buffers
// it writes. Once published only the render thread touches it, until it
// is retired.
type sequence struct {
	ops       []op
	scratch   *buffer.Audio
	audio     [][]float64
	midi      []*midi.Buffer
	nodes     []*processor.Node
	blockSize int

	hasAudioOut bool
	hasMidiOut  bool
}

// perform runs every op for a block of frames. frames must not exceed the
// block size the sequence was compiled for.
func (s *sequence) perform(frames int) {
	s.scratch.SetFrames(frames)

	for i := range s.ops {
		o := &s.ops[i]

		switch o.kind {
		case opClearAudio:
			clear(s.scratch.Channel(o.dst))
		case opCopyAudio:
			if o.fade {
				clear(s.scratch.Channel(o.dst))
				s.scratch.AddChannelWithRamp(o.dst, s.scratch.Channel(o.src), 0, 1)
				o.fade = false
			} else {
				s.scratch.CopyChannel(o.dst, s.scratch.Channel(o.src))
			}
		case opAddAudio:
			if o.fade {
				s.scratch.AddChannelWithRamp(o.dst, s.scratch.Channel(o.src), 0, 1)
				o.fade = false
			} else {
				s.scratch.AddChannel(o.dst, s.scratch.Channel(o.src), 1)
			}
		case opClearMidi:
			s.midi[o.dst].Clear()
		case opCopyMidi:
			s.midi[o.dst].CopyFrom(s.midi[o.src])
		case opAddMidi:
			s.midi[o.dst].AddFrom(s.midi[o.src], 0, frames, 0)
		case opControlToControl:
			o.to.Set(o.from.Get())
		case opControlToCV:
			v := 0.0
			if o.from != nil {
				v = o.from.Get()
			}
			data := s.scratch.Channel(o.dst)
			if o.add {
				for j := range data {
					data[j] += v
				}
			} else {
				s.scratch.Fill(o.dst, v)
			}
		case opRender:
			b := o.block
			b.Frames = frames
			b.Audio.SetFrames(frames)
			b.CV.SetFrames(frames)
			o.node.Process(b)
		}
	}
}
