package nodes

import (
	"context"
	"errors"
	"math"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/engine/program"
	"github.com/cwbudde/algo-graph/internal/testutil"
)

const (
	testRate  = 48000.0
	testBlock = 256
)

func prepare(t *testing.T, impl processor.Impl) *processor.Node {
	t.Helper()

	n := processor.New(impl)
	if err := n.Prepare(processor.PrepareContext{SampleRate: testRate, BlockSize: testBlock}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	return n
}

func audioBlock(ins, outs int, fill []float64) *processor.Block {
	a := buffer.NewAudio(max(ins, outs), len(fill))
	for ch := range ins {
		a.CopyChannel(ch, fill)
	}

	return &processor.Block{
		Audio:     a,
		CV:        buffer.NewAudio(0, len(fill)),
		Midi:      midi.NewPipe(),
		Frames:    len(fill),
		AudioIns:  ins,
		AudioOuts: outs,
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("default types", func(t *testing.T) {
		t.Parallel()

		r := DefaultRegistry()
		want := []string{TypeAnalyzer, TypeCVScale, TypeDelay, TypeFilter, TypeGain, TypeTone}
		got := r.Types()
		if len(got) != len(want) {
			t.Fatalf("Types = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Types = %v, want %v", got, want)
			}
		}

		for _, name := range want {
			n, err := r.Create(name)
			if err != nil {
				t.Fatalf("Create(%q): %v", name, err)
			}
			if TypeOf(n) != name || n.Name() != name {
				t.Fatalf("Create(%q) gave type %q name %q", name, TypeOf(n), n.Name())
			}
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		_, err := DefaultRegistry().Create("reverb")
		if !errors.Is(err, ErrUnknownType) {
			t.Fatalf("err = %v, want ErrUnknownType", err)
		}
	})

	t.Run("rejects bad registrations", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		f := func() (processor.Impl, error) { return NewGain(1), nil }

		if r.Register("", f) == nil {
			t.Fatal("empty type accepted")
		}
		if r.Register("x", nil) == nil {
			t.Fatal("nil factory accepted")
		}
		if err := r.Register("x", f); err != nil {
			t.Fatal(err)
		}
		if !errors.Is(r.Register("x", f), errDuplicateType) {
			t.Fatal("duplicate accepted")
		}
	})

	t.Run("factory error", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		boom := errors.New("boom")
		r.MustRegister("bad", func() (processor.Impl, error) { return nil, boom })

		if _, err := r.Create("bad"); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	})
}

func TestGainVolume(t *testing.T) {
	t.Parallel()

	g := NewGain(2)
	n := prepare(t, g)
	n.Parameter("volume").Set(-6)

	b := audioBlock(2, 2, testutil.Ones(testBlock))
	n.Process(b)

	want := math.Pow(10, -6.0/20)
	out := b.Audio.Channel(1)
	testutil.RequireMonotonic(t, out, false)
	if math.Abs(out[testBlock-1]-want) > 1e-2 {
		t.Fatalf("end of ramp = %v, want about %v", out[testBlock-1], want)
	}

	b = audioBlock(2, 2, testutil.Ones(testBlock))
	n.Process(b)
	testutil.RequireSliceNearlyEqual(t, b.Audio.Channel(0), testutil.DC(want, testBlock), 1e-12)

	n.Parameter("volume").Set(MinVolumeDB)
	n.Process(audioBlock(2, 2, testutil.Ones(testBlock)))
	b = audioBlock(2, 2, testutil.Ones(testBlock))
	n.Process(b)
	testutil.RequireSilent(t, b.Audio.Channel(0))
}

func TestGainProgramRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := program.NewMemoryStore()

	n := processor.New(NewGain(1))
	n.SetMidiProgramStore(store, TypeGain)
	if err := n.SetMidiProgram(2); err != nil {
		t.Fatal(err)
	}

	n.Parameter("volume").Set(-12)
	if err := n.SaveMidiProgramNow(ctx); err != nil {
		t.Fatal(err)
	}

	n.Parameter("volume").Set(0)
	if err := n.LoadMidiProgramNow(ctx); err != nil {
		t.Fatal(err)
	}

	if got := n.Parameter("volume").Get(); got != -12 {
		t.Fatalf("volume = %v, want -12", got)
	}
}

func TestToneRendersNotes(t *testing.T) {
	t.Parallel()

	tone := NewTone(2)
	n := prepare(t, tone)

	events := midi.NewBuffer(16, 128)
	events.Add(gomidi.NoteOn(0, 69, 127), 64)

	b := audioBlock(0, 2, make([]float64, testBlock))
	b.Midi = midi.NewPipe(events)
	b.MidiIns = 1
	n.Process(b)

	left, right := b.Audio.Channel(0), b.Audio.Channel(1)
	testutil.RequireSilent(t, left[:64])
	testutil.RequireFinite(t, left)
	testutil.RequireSliceNearlyEqual(t, right, left, 0)

	peak := 0.0
	for _, x := range left {
		peak = max(peak, math.Abs(x))
	}
	if peak == 0 || peak > 0.5+1e-9 {
		t.Fatalf("peak = %v, want within (0, level]", peak)
	}
	if tone.ActiveVoices() != 1 {
		t.Fatalf("ActiveVoices = %d, want 1", tone.ActiveVoices())
	}

	events.Clear()
	events.Add(gomidi.NoteOff(0, 69), 0)
	for range 20 {
		b := audioBlock(0, 2, make([]float64, testBlock))
		b.Midi = midi.NewPipe(events)
		b.MidiIns = 1
		n.Process(b)
		events.Clear()
	}

	if tone.ActiveVoices() != 0 {
		t.Fatalf("ActiveVoices = %d after release, want 0", tone.ActiveVoices())
	}
}

func TestToneLevelChangeRamps(t *testing.T) {
	t.Parallel()

	tone := NewTone(1)
	n := prepare(t, tone)

	events := midi.NewBuffer(16, 128)
	events.Add(gomidi.NoteOn(0, 69, 127), 0)

	render := func() []float64 {
		b := audioBlock(0, 1, make([]float64, testBlock))
		b.Midi = midi.NewPipe(events)
		b.MidiIns = 1
		n.Process(b)
		events.Clear()

		return b.Audio.Channel(0)
	}

	// Let the attack settle at the default level of 0.5.
	render()
	render()

	tone.Parameters()[0].Set(0)
	out := render()

	loud := false
	for j, x := range out {
		bound := 0.5 * (1 - float64(j)/float64(testBlock-1))
		if math.Abs(x) > bound+1e-12 {
			t.Fatalf("frame %d: |%v| above ramp %v", j, x, bound)
		}
		loud = loud || j < testBlock/2 && math.Abs(x) > 0.1
	}
	if !loud {
		t.Fatal("level dropped without a ramp")
	}
	if out[testBlock-1] != 0 {
		t.Fatalf("last frame = %v, want 0", out[testBlock-1])
	}

	testutil.RequireSilent(t, render())
}

func TestToneVoiceStealing(t *testing.T) {
	t.Parallel()

	tone := NewTone(1)
	n := prepare(t, tone)

	events := midi.NewBuffer(64, 512)
	for k := range MaxVoices + 3 {
		events.Add(gomidi.NoteOn(0, uint8(60+k), 100), k)
	}

	b := audioBlock(0, 1, make([]float64, testBlock))
	b.Midi = midi.NewPipe(events)
	b.MidiIns = 1
	n.Process(b)

	if tone.ActiveVoices() != MaxVoices {
		t.Fatalf("ActiveVoices = %d, want %d", tone.ActiveVoices(), MaxVoices)
	}
}

func TestDelayShiftsSignal(t *testing.T) {
	t.Parallel()

	d := NewDelay(1)
	n := prepare(t, d)
	n.Parameter("time").Set(1)

	if n.Latency() != 48 {
		t.Fatalf("Latency = %d, want 48", n.Latency())
	}

	in := make([]float64, testBlock)
	in[0] = 1
	b := audioBlock(1, 1, in)
	n.Process(b)

	out := b.Audio.Channel(0)
	for i, x := range out {
		want := 0.0
		if i == 48 {
			want = 1
		}
		if x != want {
			t.Fatalf("out[%d] = %v, want %v", i, x, want)
		}
	}
}

func TestFilterModes(t *testing.T) {
	t.Parallel()

	const blocks = 8

	peakOf := func(data []float64) float64 {
		p := 0.0
		for _, x := range data {
			p = max(p, math.Abs(x))
		}

		return p
	}

	tests := []struct {
		name     string
		highpass float64
		freq     float64
		minPeak  float64
		maxPeak  float64
	}{
		{"lowpass passes DC", 0, 0, 0.99, 1.01},
		{"lowpass stops treble", 0, 10000, 0, 0.01},
		{"highpass stops DC", 1, 0, 0, 0.01},
		{"highpass passes treble", 1, 10000, 0.95, 1.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewFilter(2)
			f.Parameters()[0].Set(500)
			f.Parameters()[2].Set(tt.highpass)
			n := prepare(t, f)

			in := testutil.DC(1, blocks*testBlock)
			if tt.freq > 0 {
				in = testutil.DeterministicSine(tt.freq, testRate, 1, blocks*testBlock)
			}

			var last *processor.Block
			for k := range blocks {
				last = audioBlock(2, 2, in[k*testBlock:(k+1)*testBlock])
				n.Process(last)
			}

			left, right := last.Audio.Channel(0), last.Audio.Channel(1)
			testutil.RequireFinite(t, left)
			testutil.RequireSliceNearlyEqual(t, right, left, 0)

			if p := peakOf(left); p < tt.minPeak || p > tt.maxPeak {
				t.Fatalf("settled peak = %v, want in [%v, %v]", p, tt.minPeak, tt.maxPeak)
			}
		})
	}
}

func TestFilterProgramRoundTrip(t *testing.T) {
	t.Parallel()

	a := NewFilter(1)
	a.Parameters()[0].Set(2500)
	a.Parameters()[2].Set(1)

	blob, err := a.State()
	if err != nil {
		t.Fatal(err)
	}

	b := NewFilter(1)
	if err := b.SetState(blob); err != nil {
		t.Fatal(err)
	}
	if b.Parameters()[0].Get() != 2500 || b.Parameters()[2].Get() != 1 {
		t.Fatalf("restored cutoff=%v highpass=%v", b.Parameters()[0].Get(), b.Parameters()[2].Get())
	}
}

func TestAnalyzerFindsSinePeak(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer(DefaultFFTSize)
	if err != nil {
		t.Fatal(err)
	}
	n := prepare(t, a)

	// Bin 32 of a 1024 point FFT at 48 kHz.
	freq := 32 * testRate / DefaultFFTSize
	sine := testutil.DeterministicSine(freq, testRate, 1, 4*DefaultFFTSize)

	for off := 0; off < len(sine); off += testBlock {
		b := audioBlock(1, 1, sine[off:off+testBlock])
		n.Process(b)
		testutil.RequireSliceNearlyEqual(t, b.Audio.Channel(0), sine[off:off+testBlock], 0)
	}

	if got := a.PeakBin(); got != 32 {
		t.Fatalf("PeakBin = %d, want 32", got)
	}

	power := make([]float64, a.Bins())
	if frames := a.Spectrum(power); frames == 0 {
		t.Fatal("no frames analysed")
	}
	testutil.RequireFinite(t, power)
}

func TestAnalyzerRejectsBadSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 8, 1000} {
		if _, err := NewAnalyzer(size); !errors.Is(err, errFFTSize) {
			t.Fatalf("NewAnalyzer(%d) err = %v", size, err)
		}
	}
}

func TestCVScale(t *testing.T) {
	t.Parallel()

	n := prepare(t, NewCVScale())
	n.Parameter("scale").Set(2)
	n.Parameter("offset").Set(0.5)

	b := audioBlock(0, 1, make([]float64, 8))
	b.CV = buffer.FromChannels([][]float64{testutil.DC(0.25, 8)})
	b.CVIns = 1
	n.Process(b)

	testutil.RequireSliceNearlyEqual(t, b.Audio.Channel(0), testutil.DC(1, 8), 1e-12)
}
