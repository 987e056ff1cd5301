// Command graphrender renders a patch offline and writes the graph's
// audio outputs to a 16-bit WAV file.
//
// Usage:
//
//	graphrender [flags] patch.yaml
//
// Examples:
//
//	graphrender -o tone.wav -note 69 synth.yaml
//	graphrender -seconds 10 -rate 44100 -programs programs.db chain.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/graph"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/program/boltstore"
	"github.com/cwbudde/algo-graph/internal/patch"
	"github.com/cwbudde/algo-graph/nodes"
)

type options struct {
	patchFile string
	output    string
	seconds   float64
	rate      float64
	block     int
	note      int
	velocity  int
	programs  string
}

func main() {
	var opts options

	flag.StringVar(&opts.output, "o", "out.wav", "output WAV file")
	flag.Float64Var(&opts.seconds, "seconds", 2, "length to render in seconds")
	flag.Float64Var(&opts.rate, "rate", 0, "sample rate override (0 keeps the patch value)")
	flag.IntVar(&opts.block, "block", 0, "block size override (0 keeps the patch value)")
	flag.IntVar(&opts.note, "note", -1, "MIDI note held for the first three quarters (-1 for none)")
	flag.IntVar(&opts.velocity, "velocity", 100, "velocity of -note")
	flag.StringVar(&opts.programs, "programs", "", "bbolt database holding node programs")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: graphrender [flags] patch.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Renders a processor graph offline to a WAV file.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.patchFile = flag.Arg(0)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), opts, logger); err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.seconds <= 0 {
		return errors.New("seconds must be positive")
	}

	if opts.note > 127 || opts.velocity < 1 || opts.velocity > 127 {
		return fmt.Errorf("note %d velocity %d out of range", opts.note, opts.velocity)
	}

	f, err := os.Open(opts.patchFile)
	if err != nil {
		return err
	}
	p, err := patch.Read(f)
	f.Close()
	if err != nil {
		return err
	}

	if opts.rate > 0 {
		p.SampleRate = opts.rate
	}
	if opts.block > 0 {
		p.BlockSize = opts.block
	}

	var buildOpts []patch.Option
	if opts.programs != "" {
		store, err := boltstore.Open(opts.programs)
		if err != nil {
			return err
		}
		defer store.Close()
		buildOpts = append(buildOpts, patch.WithProgramStore(store))
	}

	g := graph.New(graph.WithLogger(logger), graph.WithPlayConfig(core.DefaultPlayConfig()))
	if _, err := patch.Build(ctx, g, nodes.DefaultRegistry(), p, buildOpts...); err != nil {
		return err
	}
	defer g.Clear()

	cfg := g.PlayConfig()
	ins, outs := g.IOChannels()
	if outs == 0 {
		return errors.New("patch has no audio outputs")
	}

	total := int(math.Round(opts.seconds * cfg.SampleRate))
	noteOff := total * 3 / 4

	logger.Info("rendering",
		"patch", opts.patchFile,
		"nodes", g.NumNodes(),
		"connections", g.NumConnections(),
		"rate", cfg.SampleRate,
		"block", cfg.BlockSize,
		"frames", total,
		"latency", g.Latency())

	host := buffer.NewAudio(max(ins, outs), cfg.BlockSize)
	events := midi.NewBuffer(64, 1024)

	out := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: outs,
			SampleRate:  int(cfg.SampleRate),
		},
		Data:           make([]int, 0, total*outs),
		SourceBitDepth: 16,
	}

	for pos := 0; pos < total; pos += cfg.BlockSize {
		frames := min(cfg.BlockSize, total-pos)
		host.SetFrames(frames)
		host.Clear()
		events.Clear()

		if opts.note >= 0 {
			key := uint8(opts.note)
			if pos == 0 {
				events.Add(gomidi.NoteOn(0, key, uint8(opts.velocity)), 0)
			}
			if noteOff >= pos && noteOff < pos+frames {
				events.Add(gomidi.NoteOff(0, key), noteOff-pos)
			}
		}

		g.RenderBlock(host, events)
		g.ReleaseRetired()

		for i := range frames {
			for ch := range outs {
				out.Data = append(out.Data, toPCM16(host.Channel(ch)[i]))
			}
		}
	}

	return writeWAV(opts.output, out)
}

func toPCM16(x float64) int {
	return int(math.Round(core.Clamp(x, -1, 1) * 32767))
}

func writeWAV(path string, buf *audio.IntBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.Format.SampleRate, 16, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", path, err)
	}

	return nil
}
