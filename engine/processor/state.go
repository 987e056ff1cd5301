package processor

import (
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/midi"
)

// IsEnabled reports whether the node renders. Disabled nodes pass audio
// through like bypassed ones.
func (n *Node) IsEnabled() bool { return n.enabled.Load() }

// SetEnabled toggles rendering and fires EnablementChanged on change.
func (n *Node) SetEnabled(enabled bool) {
	if n.enabled.Swap(enabled) != enabled {
		n.EnablementChanged.Emit(n)
	}
}

// IsBypassed reports whether the node is bypassed.
func (n *Node) IsBypassed() bool { return n.bypassed.Load() }

// SetBypassed toggles bypass and fires BypassChanged on change.
func (n *Node) SetBypassed(bypassed bool) {
	if n.bypassed.Swap(bypassed) != bypassed {
		n.BypassChanged.Emit(n)
	}
}

// IsMuted reports whether the node's outputs are silenced.
func (n *Node) IsMuted() bool { return n.muted.Load() }

// SetMuted toggles output muting and fires MuteChanged on change.
func (n *Node) SetMuted(muted bool) {
	if n.muted.Swap(muted) != muted {
		n.MuteChanged.Emit(n)
	}
}

// IsMutingInputs reports whether the node's inputs are cleared before
// rendering.
func (n *Node) IsMutingInputs() bool { return n.muteInput.Load() }

// SetMuteInput toggles input muting.
func (n *Node) SetMuteInput(muted bool) { n.muteInput.Store(muted) }

// IsSuspended reports whether processing is suspended.
func (n *Node) IsSuspended() bool { return n.suspended.Load() }

// SuspendProcessing suspends or resumes rendering. A suspended node passes
// audio through without calling the implementation.
func (n *Node) SuspendProcessing(suspend bool) { n.suspended.Store(suspend) }

// Gain returns the target output gain.
func (n *Node) Gain() float64 { return n.gain.Load() }

// SetGain sets the target output gain. The render thread ramps to it over
// the next block. Negative and non-finite values are ignored.
func (n *Node) SetGain(gain float64) {
	if !core.IsFinite(gain) || gain < 0 {
		return
	}

	n.gain.Store(gain)
}

// InputGain returns the target input gain.
func (n *Node) InputGain() float64 { return n.inputGain.Load() }

// SetInputGain sets the target input gain with the same rules as SetGain.
func (n *Node) SetInputGain(gain float64) {
	if !core.IsFinite(gain) || gain < 0 {
		return
	}

	n.inputGain.Store(gain)
}

// LastGain returns the output gain applied at the end of the last block.
// It is written by the render thread; read it only while not rendering.
func (n *Node) LastGain() float64 { return n.lastGain }

// LastInputGain returns the input gain applied at the end of the last
// block, with the same caveat as LastGain.
func (n *Node) LastInputGain() float64 { return n.lastInputGain }

// KeyRange returns the accepted note range.
func (n *Node) KeyRange() midi.KeyRange {
	return midi.KeyRange{Low: uint8(n.keyLow.Load()), High: uint8(n.keyHigh.Load())}
}

// SetKeyRange sets the accepted note range. Bounds are clamped to 0..127
// and swapped when reversed.
func (n *Node) SetKeyRange(low, high int) {
	low = int(core.Clamp(float64(low), 0, 127))
	high = int(core.Clamp(float64(high), 0, 127))

	if low > high {
		low, high = high, low
	}

	n.keyLow.Store(uint32(low))
	n.keyHigh.Store(uint32(high))
}

// Transpose returns the note offset in semitones.
func (n *Node) Transpose() int { return int(n.transpose.Load()) }

// SetTranspose sets the note offset, clamped to -24..24 semitones.
func (n *Node) SetTranspose(semitones int) {
	n.transpose.Store(int32(core.Clamp(float64(semitones), -24, 24)))
}

// MidiChannels returns the accepted MIDI channels.
func (n *Node) MidiChannels() midi.ChannelSet {
	return midi.ChannelSet(n.midiChannels.Load())
}

// SetMidiChannels sets the accepted MIDI channels.
func (n *Node) SetMidiChannels(channels midi.ChannelSet) {
	n.midiChannels.Store(uint32(channels))
}
