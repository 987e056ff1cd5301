package graph

import (
	"log/slog"

	"github.com/cwbudde/algo-graph/engine/async"
	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/core"
)

// Option configures a Graph.
type Option func(*Graph)

// WithPlayConfig sets the sample rate and block size nodes are prepared
// for. Invalid configs are ignored.
func WithPlayConfig(cfg core.PlayConfig) Option {
	return func(g *Graph) {
		if cfg.Valid() {
			g.config = cfg
		}
	}
}

// WithLoop sets the control loop that rebuilds and node deferred work run
// on. Without a loop every edit recompiles synchronously.
func WithLoop(loop *async.Loop) Option {
	return func(g *Graph) {
		g.loop = loop
	}
}

// WithLogger sets the logger for control-thread diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithIOChannels sets the number of audio channels the graph exchanges
// with its host.
func WithIOChannels(audioIns, audioOuts int) Option {
	return func(g *Graph) {
		g.audioIns = max(audioIns, 0)
		g.audioOuts = max(audioOuts, 0)
	}
}

// WithPool sets the pool scratch buffers are drawn from. Graphs nested in
// one another can share a pool.
func WithPool(p *buffer.Pool) Option {
	return func(g *Graph) {
		if p != nil {
			g.pool = p
		}
	}
}
