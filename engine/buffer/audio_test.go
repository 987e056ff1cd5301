package buffer

import (
	"testing"

	"github.com/cwbudde/algo-graph/internal/testutil"
)

func TestNewAudio(t *testing.T) {
	t.Parallel()

	a := NewAudio(2, 8)
	if a.NumChannels() != 2 || a.NumFrames() != 8 {
		t.Fatalf("got %dx%d, want 2x8", a.NumChannels(), a.NumFrames())
	}

	if a.MaxFrames() != 8 {
		t.Fatalf("MaxFrames() = %d, want 8", a.MaxFrames())
	}

	for ch := range 2 {
		for i, v := range a.Channel(ch) {
			if v != 0 {
				t.Fatalf("channel %d frame %d = %v, want 0", ch, i, v)
			}
		}
	}

	if a.Channel(2) != nil || a.Channel(-1) != nil {
		t.Fatal("out of range channel should be nil")
	}
}

func TestAudioChannelsDoNotOverlap(t *testing.T) {
	t.Parallel()

	a := NewAudio(2, 4)
	a.Fill(0, 1)

	testutil.RequireSliceNearlyEqual(t, a.Channel(1), []float64{0, 0, 0, 0}, 0)
}

func TestAudioSetFrames(t *testing.T) {
	t.Parallel()

	a := NewAudio(1, 8)
	if !a.SetFrames(4) {
		t.Fatal("shrinking should succeed")
	}

	if len(a.Channel(0)) != 4 {
		t.Fatalf("len = %d, want 4", len(a.Channel(0)))
	}

	if a.SetFrames(16) {
		t.Fatal("growing past capacity should fail")
	}

	if a.NumFrames() != 4 {
		t.Fatalf("frames = %d, want 4 after failed grow", a.NumFrames())
	}

	if !a.SetFrames(8) {
		t.Fatal("growing back within capacity should succeed")
	}
}

func TestAudioClearRange(t *testing.T) {
	t.Parallel()

	a := FromChannels([][]float64{{1, 1, 1, 1}, {2, 2, 2, 2}})
	a.ClearRange(1, 2)

	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{1, 0, 0, 1}, 0)
	testutil.RequireSliceNearlyEqual(t, a.Channel(1), []float64{2, 0, 0, 2}, 0)

	a.ClearChannel(0, -2, 100)
	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{0, 0, 0, 0}, 0)
}

func TestAudioCopyAndAdd(t *testing.T) {
	t.Parallel()

	a := NewAudio(1, 4)
	a.CopyChannel(0, []float64{1, 2})
	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{1, 2, 0, 0}, 0)

	a.AddChannel(0, []float64{1, 1, 1, 1}, 1)
	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{2, 3, 1, 1}, 1e-12)

	a.AddChannel(0, []float64{1, 1, 1, 1}, 0.5)
	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{2.5, 3.5, 1.5, 1.5}, 1e-12)
}

func TestAudioGainRamp(t *testing.T) {
	t.Parallel()

	a := FromChannels([][]float64{testutil.Ones(4)})
	a.ApplyGainRamp(0, 0, 0.75)
	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{0, 0.25, 0.5, 0.75}, 1e-12)

	b := FromChannels([][]float64{testutil.Ones(4)})
	b.ApplyGainRamp(0, 0.5, 0.5)
	testutil.RequireSliceNearlyEqual(t, b.Channel(0), testutil.DC(0.5, 4), 1e-12)

	c := NewAudio(1, 4)
	c.AddChannelWithRamp(0, testutil.Ones(4), 1, 0.25)
	testutil.RequireSliceNearlyEqual(t, c.Channel(0), []float64{1, 0.75, 0.5, 0.25}, 1e-12)
}

func TestAudioRampLandsOnTarget(t *testing.T) {
	t.Parallel()

	// Consecutive ramps join without a step: each block ends on its target
	// and the next starts from it.
	a := FromChannels([][]float64{testutil.Ones(8)})
	a.ApplyGainRamp(0, 1, 0.3)

	out := a.Channel(0)
	if out[0] != 1 || out[7] != 0.3 {
		t.Fatalf("ramp ends = %v .. %v, want 1 .. 0.3", out[0], out[7])
	}
	testutil.RequireMonotonic(t, out, false)

	b := NewAudio(1, 8)
	b.AddChannelWithRamp(0, testutil.Ones(8), 0, 0.6)
	if got := b.Channel(0)[7]; got != 0.6 {
		t.Fatalf("last = %v, want 0.6", got)
	}

	single := FromChannels([][]float64{{2}})
	single.ApplyGainRamp(0, 0, 0.5)
	if single.Channel(0)[0] != 1 {
		t.Fatalf("one-frame ramp = %v, want target gain", single.Channel(0)[0])
	}
}

func TestAudioApplyGainZeroClears(t *testing.T) {
	t.Parallel()

	a := FromChannels([][]float64{{1, -1}})
	a.ApplyGain(0, 0)
	testutil.RequireSliceNearlyEqual(t, a.Channel(0), []float64{0, 0}, 0)
}

func TestAudioRefer(t *testing.T) {
	t.Parallel()

	left := []float64{1, 2, 3}
	right := []float64{4, 5}

	a := NewAudio(4, 4)
	a.Refer([][]float64{left, right})

	if a.NumChannels() != 2 || a.NumFrames() != 2 {
		t.Fatalf("got %dx%d, want 2x2", a.NumChannels(), a.NumFrames())
	}

	a.Channel(0)[0] = 9
	if left[0] != 9 {
		t.Fatal("Refer should not copy channel data")
	}
}
