package graph

import (
	"sync/atomic"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// dispatcher publishes sequences to the render thread and frees retired
// ones once the render thread has provably left them.
//
// The render thread counts blocks on entry and exit. A sequence retired
// while entered == k can only be in use by blocks up to k, so it is free
// once exited >= k. There is one render thread per graph.
type dispatcher struct {
	live    atomic.Pointer[sequence]
	entered atomic.Uint64
	exited  atomic.Uint64

	// Control thread only.
	retired []retiredSequence
}

type retiredSequence struct {
	seq   *sequence
	epoch uint64
	nodes []*processor.Node
}

// RebuildNow compiles and publishes a new render sequence immediately,
// cancelling any pending coalesced rebuild.
func (g *Graph) RebuildNow() {
	g.rebuild.Cancel()

	seq := g.compile()
	g.compiles++

	g.lastConns = make(map[Connection]struct{}, len(g.connections))
	for _, c := range g.connections {
		g.lastConns[c] = struct{}{}
	}

	g.publish(seq)
}

func (g *Graph) publish(seq *sequence) {
	d := &g.dispatch

	old := d.live.Swap(seq)
	doomed := g.doomed
	g.doomed = nil

	if old != nil {
		d.retired = append(d.retired, retiredSequence{seq: old, epoch: d.entered.Load(), nodes: doomed})
	} else {
		for _, n := range doomed {
			n.Dispose()
		}
	}

	g.ReleaseRetired()
}

// ReleaseRetired frees every retired sequence the render thread can no
// longer be using and disposes the nodes removed with it. It returns how
// many sequences remain retired. Control thread only.
func (g *Graph) ReleaseRetired() int {
	d := &g.dispatch
	done := d.exited.Load()

	kept := d.retired[:0]
	for _, r := range d.retired {
		if done < r.epoch {
			kept = append(kept, r)
			continue
		}

		g.release(r.seq)
		for _, n := range r.nodes {
			n.Dispose()
		}
	}

	clear(d.retired[len(kept):])
	d.retired = kept

	return len(kept)
}

func (g *Graph) release(s *sequence) {
	for _, ch := range s.audio {
		g.pool.Put(ch)
	}

	g.freeMidi = append(g.freeMidi, s.midi...)
	s.audio, s.midi, s.ops = nil, nil, nil
}

// retireAll unpublishes the live sequence.
func (g *Graph) retireAll() {
	d := &g.dispatch
	if old := d.live.Swap(nil); old != nil {
		d.retired = append(d.retired, retiredSequence{seq: old, epoch: d.entered.Load(), nodes: g.doomed})
		g.doomed = nil
	}

	g.ReleaseRetired()
}

// RenderBlock renders one host block on the render thread. audio carries
// the host inputs in its first channels and receives the outputs in place;
// events, when not nil, carries incoming MIDI and receives outgoing MIDI.
//
// Before the first compile the outputs are silent. Blocks longer than the
// configured block size are rendered in block-size chunks, with MIDI frames
// kept relative to the host block.
func (g *Graph) RenderBlock(audio *buffer.Audio, events *midi.Buffer) {
	d := &g.dispatch
	d.entered.Add(1)
	defer d.exited.Add(1)

	seq := d.live.Load()
	if seq == nil || audio == nil {
		if audio != nil {
			audio.Clear()
		}
		if events != nil {
			events.Clear()
		}

		return
	}

	total := audio.NumFrames()
	if total <= seq.blockSize {
		g.hostAudio = audio
		g.hostMidi = events
		seq.perform(total)
	} else {
		g.performChunked(seq, audio, events)
	}
	g.hostAudio = nil
	g.hostMidi = nil

	if !seq.hasAudioOut {
		audio.Clear()
	}

	if events != nil && !seq.hasMidiOut {
		events.Clear()
	}
}

// performChunked runs seq over consecutive windows of audio and events.
// Host channels beyond maxHostChannels are cleared.
func (g *Graph) performChunked(seq *sequence, audio *buffer.Audio, events *midi.Buffer) {
	total := audio.NumFrames()
	channels := min(audio.NumChannels(), maxHostChannels)
	views := g.hostViews[:channels]

	if events != nil {
		g.midiIn.CopyFrom(events)
		events.Clear()
	}

	for start := 0; start < total; start += seq.blockSize {
		n := min(seq.blockSize, total-start)

		for ch := range views {
			views[ch] = audio.Channel(ch)[start : start+n]
		}
		g.hostView.Refer(views)
		g.hostAudio = g.hostView

		if events != nil {
			g.midiChunk.Clear()
			g.midiChunk.AddFrom(g.midiIn, start, n, -start)
			g.hostMidi = g.midiChunk
		}

		seq.perform(n)

		if events != nil && seq.hasMidiOut {
			events.AddFrom(g.midiChunk, 0, n, start)
		}
	}

	clear(views)
	for ch := channels; ch < audio.NumChannels(); ch++ {
		audio.ClearChannel(ch, 0, total)
	}
}
