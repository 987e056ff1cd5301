package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

const tonePatch = `sample_rate: 8000
block_size: 100
outputs: 2
nodes:
  - {id: 1, type: _midi_in}
  - {id: 2, type: _audio_out}
  - {id: 3, type: tone}
connections:
  - [1, midi_in, 3, midi_in]
  - [3, out_1, 2, out_1]
  - [3, out_2, 2, out_2]
`

func TestRunWritesWAV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	patchFile := filepath.Join(dir, "tone.yaml")
	if err := os.WriteFile(patchFile, []byte(tonePatch), 0o600); err != nil {
		t.Fatal(err)
	}

	opts := options{
		patchFile: patchFile,
		output:    filepath.Join(dir, "tone.wav"),
		seconds:   0.25,
		note:      69,
		velocity:  100,
		programs:  filepath.Join(dir, "programs.db"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(context.Background(), opts, logger); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(opts.output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}

	if dec.NumChans != 2 || dec.SampleRate != 8000 || dec.BitDepth != 16 {
		t.Fatalf("format = %d ch, %d Hz, %d bit", dec.NumChans, dec.SampleRate, dec.BitDepth)
	}

	if len(buf.Data) != 2*2000 {
		t.Fatalf("got %d samples, want %d", len(buf.Data), 2*2000)
	}

	peak := 0
	for _, x := range buf.Data {
		peak = max(peak, x, -x)
	}
	if peak == 0 || peak > 32767 {
		t.Fatalf("peak = %d", peak)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []options{
		{patchFile: "missing.yaml", seconds: 1, note: -1, velocity: 100},
		{patchFile: "missing.yaml", seconds: 0, note: -1, velocity: 100},
		{patchFile: "missing.yaml", seconds: 1, note: 200, velocity: 100},
	}

	for _, opts := range tests {
		if err := run(context.Background(), opts, logger); err == nil {
			t.Fatalf("run(%+v) succeeded", opts)
		}
	}
}
