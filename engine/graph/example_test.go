package graph_test

import (
	"fmt"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/core"
	"github.com/cwbudde/algo-graph/engine/graph"
	"github.com/cwbudde/algo-graph/engine/port"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/nodes"
)

func Example() {
	cfg := core.ApplyPlayOptions(core.WithSampleRate(48000), core.WithBlockSize(8))
	g := graph.New(graph.WithPlayConfig(cfg), graph.WithIOChannels(1, 1))
	g.AddIONodes()

	gain := nodes.NewGain(1)
	gain.Volume().Set(-6)
	amp := processor.New(gain)
	g.AddNode(amp, 0)

	in, out := g.IONode(graph.AudioIn), g.IONode(graph.AudioOut)
	g.AddConnection(in.ID(), in.Ports().PortForChannel(port.Audio, 0, false),
		amp.ID(), amp.Ports().PortForChannel(port.Audio, 0, true))
	g.AddConnection(amp.ID(), amp.Ports().PortForChannel(port.Audio, 0, false),
		out.ID(), out.Ports().PortForChannel(port.Audio, 0, true))

	host := buffer.NewAudio(1, 8)
	for range 2 {
		host.Fill(0, 1)
		g.RenderBlock(host, nil)
	}

	fmt.Println(g.NumNodes(), g.NumConnections())
	fmt.Printf("%.3f\n", host.Channel(0)[7])
	// Output:
	// 5 2
	// 0.501
}
