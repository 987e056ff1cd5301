package midi

import "github.com/cwbudde/algo-graph/internal/assert"

// MaxReferencedBuffers is the number of buffers a Pipe can reference.
const MaxReferencedBuffers = 32

// Pipe hands a node the MIDI buffers for its ports, indexed by MIDI
// channel (port position). It does not own them; a Pipe is valid only for
// the render call it was passed to.
type Pipe struct {
	buffers [MaxReferencedBuffers]*Buffer
	size    int
}

// NewPipe returns a pipe referencing bufs.
func NewPipe(bufs ...*Buffer) *Pipe {
	p := &Pipe{}
	p.Set(bufs)

	return p
}

// Set replaces the referenced buffers. Buffers beyond MaxReferencedBuffers
// are ignored.
func (p *Pipe) Set(bufs []*Buffer) {
	assert.That(len(bufs) <= MaxReferencedBuffers, "midi: too many pipe buffers")

	n := min(len(bufs), MaxReferencedBuffers)
	copy(p.buffers[:], bufs[:n])
	clear(p.buffers[n:])
	p.size = n
}

// Size returns the number of referenced buffers.
func (p *Pipe) Size() int {
	return p.size
}

// ReadBuffer returns buffer i. The index is only checked in debug builds;
// release builds return nil for an unreferenced slot below
// MaxReferencedBuffers and panic beyond it.
func (p *Pipe) ReadBuffer(i int) *Buffer {
	assert.That(i >= 0 && i < p.size, "midi: pipe read index out of range")
	return p.buffers[i]
}

// WriteBuffer returns buffer i with the same checking as ReadBuffer.
func (p *Pipe) WriteBuffer(i int) *Buffer {
	assert.That(i >= 0 && i < p.size, "midi: pipe write index out of range")
	return p.buffers[i]
}

// Clear empties every referenced buffer.
func (p *Pipe) Clear() {
	for _, b := range p.buffers[:p.size] {
		b.Clear()
	}
}

// ClearRange removes events in [start, start+count) from every buffer.
func (p *Pipe) ClearRange(start, count int) {
	for _, b := range p.buffers[:p.size] {
		b.ClearRange(start, count)
	}
}

// ClearChannel removes events in [start, start+count) from one buffer.
func (p *Pipe) ClearChannel(channel, start, count int) {
	if channel < 0 || channel >= p.size {
		return
	}

	p.buffers[channel].ClearRange(start, count)
}
