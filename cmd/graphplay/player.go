package main

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/graph"
	"github.com/cwbudde/algo-graph/engine/midi"
)

const noNote = -1

// maxCallbackFrames is the largest callback the player renders; the graph
// splits callbacks longer than its block size into chunks.
const maxCallbackFrames = 8192

// player adapts the PortAudio callback to the graph's render entry point.
type player struct {
	g      *graph.Graph
	ins    int
	outs   int
	host   *buffer.Audio
	events *midi.Buffer

	// pending is a note to start on the next callback, or noNote.
	pending atomic.Int32
}

func newPlayer(g *graph.Graph, ins, outs, blockSize int) *player {
	pl := &player{
		g:      g,
		ins:    ins,
		outs:   outs,
		host:   buffer.NewAudio(max(ins, outs), max(blockSize, maxCallbackFrames)),
		events: midi.NewBuffer(64, 1024),
	}
	pl.pending.Store(noNote)

	return pl
}

// hold schedules a note on for the next callback.
func (pl *player) hold(key uint8) {
	pl.pending.Store(int32(key))
}

// process is the PortAudio stream callback.
func (pl *player) process(in, out [][]float32) {
	frames := 0
	if len(out) > 0 {
		frames = len(out[0])
	}

	if !pl.host.SetFrames(frames) {
		for _, ch := range out {
			clear(ch)
		}

		return
	}

	for ch := range pl.host.NumChannels() {
		data := pl.host.Channel(ch)
		if ch >= len(in) {
			clear(data)
			continue
		}
		for i := range data {
			data[i] = float64(in[ch][i])
		}
	}

	pl.events.Clear()
	if key := pl.pending.Swap(noNote); key != noNote {
		pl.events.Add(gomidi.NoteOn(0, uint8(key), 100), 0)
	}

	pl.g.RenderBlock(pl.host, pl.events)

	for ch, dst := range out {
		src := pl.host.Channel(ch)
		for i := range dst {
			if i < len(src) {
				dst[i] = float32(src[i])
			} else {
				dst[i] = 0
			}
		}
	}
}
