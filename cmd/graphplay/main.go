// Command graphplay plays a patch in real time through the default
// PortAudio devices until interrupted.
//
// Usage:
//
//	graphplay [flags] patch.yaml
//
// Examples:
//
//	graphplay -note 60 synth.yaml
//	graphplay -block 128 -programs programs.db chain.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-graph/engine/async"
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/graph"
	"github.com/cwbudde/algo-graph/engine/program/boltstore"
	"github.com/cwbudde/algo-graph/internal/patch"
	"github.com/cwbudde/algo-graph/nodes"
)

func main() {
	block := flag.Int("block", 0, "block size override (0 keeps the patch value)")
	note := flag.Int("note", -1, "MIDI note to hold while playing (-1 for none)")
	programs := flag.String("programs", "", "bbolt database holding node programs")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: graphplay [flags] patch.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Plays a processor graph through the default audio devices.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), *block, *note, *programs, logger); err != nil {
		logger.Error("playback failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, patchFile string, block, note int, programs string, logger *slog.Logger) error {
	if note > 127 {
		return fmt.Errorf("note %d out of range", note)
	}

	f, err := os.Open(patchFile)
	if err != nil {
		return err
	}
	p, err := patch.Read(f)
	f.Close()
	if err != nil {
		return err
	}

	if block > 0 {
		p.BlockSize = block
	}

	var buildOpts []patch.Option
	if programs != "" {
		store, err := boltstore.Open(programs)
		if err != nil {
			return err
		}
		defer store.Close()
		buildOpts = append(buildOpts, patch.WithProgramStore(store))
	}

	loop := async.NewLoop(256)
	g := graph.New(
		graph.WithLoop(loop),
		graph.WithLogger(logger),
		graph.WithPlayConfig(core.DefaultPlayConfig()),
	)
	if _, err := patch.Build(ctx, g, nodes.DefaultRegistry(), p, buildOpts...); err != nil {
		return err
	}
	g.RebuildNow()

	cfg := g.PlayConfig()
	ins, outs := g.IOChannels()
	if outs == 0 {
		return errors.New("patch has no audio outputs")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	defer portaudio.Terminate()

	pl := newPlayer(g, ins, outs, cfg.BlockSize)
	if note >= 0 {
		pl.hold(uint8(note))
	}

	stream, err := portaudio.OpenDefaultStream(ins, outs, cfg.SampleRate, cfg.BlockSize, pl.process)
	if err != nil {
		return fmt.Errorf("portaudio: open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start: %w", err)
	}

	logger.Info("playing",
		"patch", patchFile,
		"nodes", g.NumNodes(),
		"rate", cfg.SampleRate,
		"block", cfg.BlockSize,
		"latency", g.Latency())

	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				loop.Post(func() { g.ReleaseRetired() })
			}
		}
	}()

	err = loop.Run(ctx)

	if stopErr := stream.Stop(); stopErr != nil {
		logger.Warn("stopping stream", "error", stopErr)
	}

	loop.Dispatch()
	g.Release()

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
