package nodes

import (
	"errors"
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
)

// TypeAnalyzer is the registry name of Analyzer.
const TypeAnalyzer = "analyzer"

// DefaultFFTSize is the frame length of analyzers built by the default
// registry.
const DefaultFFTSize = 1024

var errFFTSize = errors.New("nodes: fft size must be a power of two >= 16")

// Analyzer passes one audio channel through unchanged and publishes the
// power spectrum of the last frame, with 50% overlap between frames.
type Analyzer struct {
	size   int
	layout *port.List

	plan   *algofft.Plan[complex128]
	window []float64
	ring   []float64
	pos    int
	hop    int
	in     []complex128
	out    []complex128
	re     []float64
	im     []float64
	power  []float64

	mu       sync.Mutex
	snapshot []float64
	frames   uint64
}

// NewAnalyzer returns an analyzer with the given FFT size.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", errFFTSize, size)
	}

	b := port.NewBuilder()
	b.Add(port.Audio, true, "in", "In")
	b.Add(port.Audio, false, "out", "Out")

	return &Analyzer{
		size:     size,
		layout:   b.List(),
		snapshot: make([]float64, size/2+1),
	}, nil
}

func (a *Analyzer) TypeName() string     { return TypeAnalyzer }
func (a *Analyzer) Kind() processor.Kind { return processor.KindAudioProcessor }
func (a *Analyzer) Ports() *port.List    { return a.layout.Clone() }

// Bins returns the number of spectrum bins.
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

func (a *Analyzer) Prepare(processor.PrepareContext) error {
	plan, err := algofft.NewPlan64(a.size)
	if err != nil {
		return fmt.Errorf("analyzer: fft plan: %w", err)
	}

	n := a.size
	a.plan = plan
	a.window = make([]float64, n)
	for i := range a.window {
		a.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	a.ring = make([]float64, n)
	a.pos = 0
	a.hop = n / 2
	a.in = make([]complex128, n)
	a.out = make([]complex128, n)
	a.re = make([]float64, n/2+1)
	a.im = make([]float64, n/2+1)
	a.power = make([]float64, n/2+1)

	return nil
}

func (a *Analyzer) Release() {
	a.plan = nil
}

func (a *Analyzer) Render(b *processor.Block) {
	if a.plan == nil || b.AudioIns == 0 {
		return
	}

	for _, x := range b.Audio.Channel(0) {
		a.ring[a.pos] = x
		a.pos++
		if a.pos == a.size {
			a.pos = 0
		}

		a.hop--
		if a.hop == 0 {
			a.hop = a.size / 2
			a.analyse()
		}
	}
}

func (a *Analyzer) analyse() {
	n := a.size
	for i := range n {
		a.in[i] = complex(a.ring[(a.pos+i)%n]*a.window[i], 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}
	vecmath.Power(a.power, a.re, a.im)

	// Hann window coherent gain is 0.5.
	norm := 2 / (0.5 * float64(n))
	vecmath.ScaleBlock(a.power, a.power, norm*norm)

	// Never wait for a reader on the render thread.
	if a.mu.TryLock() {
		copy(a.snapshot, a.power)
		a.frames++
		a.mu.Unlock()
	}
}

// Spectrum copies the latest power spectrum into dst and returns the
// number of analysed frames so far. Bin k is at k*sampleRate/size Hz.
func (a *Analyzer) Spectrum(dst []float64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	copy(dst, a.snapshot)

	return a.frames
}

// PeakBin returns the bin with the most power in the latest spectrum.
func (a *Analyzer) PeakBin() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	peak := 0
	for k, p := range a.snapshot {
		if p > a.snapshot[peak] {
			peak = k
		}
	}

	return peak
}
