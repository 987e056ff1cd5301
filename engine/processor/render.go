package processor

import (
	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
)

// Process renders one block through the node. It runs on the render thread
// and must not be called concurrently for the same node.
//
// An unprepared node outputs silence. A disabled, bypassed or suspended
// node takes the bypass path and its gain jumps to the target. Otherwise
// inputs are muted or ramped by the input gain, MIDI inputs are shaped,
// the implementation renders and outputs are ramped by the output gain
// and optionally muted.
func (n *Node) Process(b *Block) {
	if !n.prepared.Load() {
		clearOutputs(b)
		return
	}

	if !n.enabled.Load() || n.bypassed.Load() || n.suspended.Load() {
		n.renderBypassed(b)
		n.lastGain = n.gain.Load()
		n.lastInputGain = n.inputGain.Load()

		return
	}

	if n.muteInput.Load() {
		clearInputs(b)
	} else {
		n.rampInputs(b)
	}

	n.shapeMidi(b)
	n.impl.Render(b)

	gain := n.gain.Load()
	if b.Audio != nil {
		for ch := range min(b.AudioOuts, b.Audio.NumChannels()) {
			b.Audio.ApplyGainRamp(ch, n.lastGain, gain)
		}
	}
	n.lastGain = gain

	if n.muted.Load() {
		clearOutputs(b)
	}
}

func (n *Node) renderBypassed(b *Block) {
	if n.bypasser != nil {
		n.bypasser.RenderBypassed(b)
		return
	}

	PassThrough(b)
}

// PassThrough is the default bypass: shared input/output buffers carry the
// inputs through and outputs without a matching input are cleared.
func PassThrough(b *Block) {
	clearFrom(b.Audio, b.AudioIns, b.AudioOuts)
	clearFrom(b.CV, b.CVIns, b.CVOuts)

	if b.Midi != nil {
		for i := b.MidiIns; i < min(b.MidiOuts, b.Midi.Size()); i++ {
			if buf := b.Midi.WriteBuffer(i); buf != nil {
				buf.Clear()
			}
		}
	}
}

func (n *Node) rampInputs(b *Block) {
	gain := n.inputGain.Load()
	if b.Audio != nil {
		for ch := range min(b.AudioIns, b.Audio.NumChannels()) {
			b.Audio.ApplyGainRamp(ch, n.lastInputGain, gain)
		}
	}
	n.lastInputGain = gain
}

func (n *Node) shapeMidi(b *Block) {
	if b.Midi == nil || b.MidiIns == 0 {
		return
	}

	channels := n.MidiChannels()
	keys := n.KeyRange()
	transpose := n.Transpose()
	programs := n.programsEnabled.Load()

	for i := range min(b.MidiIns, b.Midi.Size()) {
		buf := b.Midi.ReadBuffer(i)
		if buf == nil {
			continue
		}

		midi.Shape(buf, channels, keys, transpose)

		if !programs {
			continue
		}

		if p, ok := midi.ProgramChange(buf, channels); ok {
			if n.midiProgram.Swap(int32(p)) != int32(p) {
				n.post(n.reloadTask)
			}
		}
	}
}

func clearInputs(b *Block) {
	if b.Audio != nil {
		for ch := range min(b.AudioIns, b.Audio.NumChannels()) {
			clear(b.Audio.Channel(ch))
		}
	}

	if b.CV != nil {
		for ch := range min(b.CVIns, b.CV.NumChannels()) {
			clear(b.CV.Channel(ch))
		}
	}

	if b.Midi != nil {
		for i := range min(b.MidiIns, b.Midi.Size()) {
			if buf := b.Midi.ReadBuffer(i); buf != nil {
				buf.Clear()
			}
		}
	}
}

func clearOutputs(b *Block) {
	clearFrom(b.Audio, 0, b.AudioOuts)
	clearFrom(b.CV, 0, b.CVOuts)

	if b.Midi != nil {
		for i := range min(b.MidiOuts, b.Midi.Size()) {
			if buf := b.Midi.WriteBuffer(i); buf != nil {
				buf.Clear()
			}
		}
	}
}

func clearFrom(a *buffer.Audio, from, to int) {
	if a == nil {
		return
	}

	for ch := max(from, 0); ch < min(to, a.NumChannels()); ch++ {
		clear(a.Channel(ch))
	}
}
