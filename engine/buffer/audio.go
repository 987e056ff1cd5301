package buffer

import (
	"github.com/cwbudde/algo-vecmath"
)

// Audio is a set of equally sized channel slices.
//
// The backing store keeps every channel at full capacity; SetFrames only
// reslices, so a buffer sized for the maximum block can follow smaller host
// blocks without allocating.
type Audio struct {
	store    [][]float64
	channels [][]float64
	frames   int
}

// NewAudio returns a zero-filled buffer with contiguous channel storage.
func NewAudio(numChannels, numFrames int) *Audio {
	if numChannels < 0 {
		numChannels = 0
	}
	if numFrames < 0 {
		numFrames = 0
	}

	backing := make([]float64, numChannels*numFrames)
	store := make([][]float64, numChannels)
	for ch := range store {
		store[ch] = backing[ch*numFrames : (ch+1)*numFrames : (ch+1)*numFrames]
	}

	return FromChannels(store)
}

// FromChannels wraps existing channel slices without copying. The frame
// count is the length of the shortest channel.
func FromChannels(channels [][]float64) *Audio {
	a := &Audio{}
	a.Refer(channels)

	return a
}

// Refer re-points the buffer at the given channel slices. It reuses the
// channel header arrays when they are large enough.
func (a *Audio) Refer(channels [][]float64) {
	frames := -1
	for _, ch := range channels {
		if frames < 0 || len(ch) < frames {
			frames = len(ch)
		}
	}
	if frames < 0 {
		frames = 0
	}

	if cap(a.store) >= len(channels) {
		a.store = a.store[:len(channels)]
	} else {
		a.store = make([][]float64, len(channels))
	}
	if cap(a.channels) >= len(channels) {
		a.channels = a.channels[:len(channels)]
	} else {
		a.channels = make([][]float64, len(channels))
	}

	copy(a.store, channels)
	a.frames = -1
	a.SetFrames(frames)
}

// NumChannels returns the channel count.
func (a *Audio) NumChannels() int {
	return len(a.channels)
}

// NumFrames returns the current frame count.
func (a *Audio) NumFrames() int {
	return a.frames
}

// MaxFrames returns the largest frame count SetFrames accepts.
func (a *Audio) MaxFrames() int {
	frames := -1
	for _, ch := range a.store {
		if frames < 0 || cap(ch) < frames {
			frames = cap(ch)
		}
	}
	if frames < 0 {
		return 0
	}

	return frames
}

// SetFrames reslices every channel to n frames. It returns false, leaving
// the buffer unchanged, when n exceeds the reserved capacity.
func (a *Audio) SetFrames(n int) bool {
	if n < 0 {
		n = 0
	}
	if n == a.frames {
		return true
	}
	for _, ch := range a.store {
		if cap(ch) < n {
			return false
		}
	}

	for i, ch := range a.store {
		a.channels[i] = ch[:n]
	}
	a.frames = n

	return true
}

// Channel returns channel i, or nil when i is out of range.
func (a *Audio) Channel(i int) []float64 {
	if i < 0 || i >= len(a.channels) {
		return nil
	}

	return a.channels[i]
}

// Channels returns the channel slices. Callers must not append to them.
func (a *Audio) Channels() [][]float64 {
	return a.channels
}

// Clear zeroes every channel.
func (a *Audio) Clear() {
	for _, ch := range a.channels {
		clear(ch)
	}
}

// ClearRange zeroes frames [start, start+count) on every channel. The range
// is clamped to the buffer.
func (a *Audio) ClearRange(start, count int) {
	for ch := range a.channels {
		a.ClearChannel(ch, start, count)
	}
}

// ClearChannel zeroes frames [start, start+count) on one channel.
func (a *Audio) ClearChannel(channel, start, count int) {
	data := a.Channel(channel)
	start, end := clampRange(len(data), start, count)
	if start < end {
		clear(data[start:end])
	}
}

// Fill sets every frame of a channel to v.
func (a *Audio) Fill(channel int, v float64) {
	data := a.Channel(channel)
	for i := range data {
		data[i] = v
	}
}

// CopyChannel copies src into channel dst. Extra destination frames are
// zeroed when src is shorter.
func (a *Audio) CopyChannel(dst int, src []float64) {
	data := a.Channel(dst)
	if data == nil {
		return
	}

	n := copy(data, src)
	if n < len(data) {
		clear(data[n:])
	}
}

// AddChannel accumulates src scaled by gain into channel dst.
func (a *Audio) AddChannel(dst int, src []float64, gain float64) {
	data := a.Channel(dst)
	n := min(len(data), len(src))
	if n == 0 || gain == 0 {
		return
	}

	if gain == 1 {
		vecmath.AddBlockInPlace(data[:n], src[:n])
		return
	}

	for i := range n {
		data[i] += src[i] * gain
	}
}

// AddChannelWithRamp accumulates src into channel dst while the gain moves
// linearly from start on the first frame to end on the last.
func (a *Audio) AddChannelWithRamp(dst int, src []float64, start, end float64) {
	if start == end {
		a.AddChannel(dst, src, end)
		return
	}

	data := a.Channel(dst)
	n := min(len(data), len(src))
	if n == 0 {
		return
	}

	for i := range n {
		data[i] += src[i] * rampGain(start, end, i, n)
	}
}

// ApplyGain scales channel ch by gain.
func (a *Audio) ApplyGain(ch int, gain float64) {
	data := a.Channel(ch)
	switch {
	case len(data) == 0 || gain == 1:
	case gain == 0:
		clear(data)
	default:
		vecmath.ScaleBlock(data, data, gain)
	}
}

// ApplyGainRamp scales channel ch by a gain moving linearly from start to
// end, landing on end at the last frame.
func (a *Audio) ApplyGainRamp(ch int, start, end float64) {
	if start == end {
		a.ApplyGain(ch, end)
		return
	}

	data := a.Channel(ch)
	if len(data) == 0 {
		return
	}

	n := len(data)
	for i := range data {
		data[i] *= rampGain(start, end, i, n)
	}
}

// rampGain is the gain at frame i of an n frame ramp whose first frame is
// start and whose last frame is end.
func rampGain(start, end float64, i, n int) float64 {
	if n < 2 {
		return end
	}
	if i == n-1 {
		return end
	}

	return start + (end-start)*float64(i)/float64(n-1)
}

func clampRange(length, start, count int) (int, int) {
	if start < 0 {
		count += start
		start = 0
	}
	if start > length {
		start = length
	}
	end := start + max(count, 0)
	if end > length {
		end = length
	}

	return start, end
}
