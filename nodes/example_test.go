package nodes_test

import (
	"fmt"

	"github.com/cwbudde/algo-graph/engine/buffer"
	"github.com/cwbudde/algo-graph/engine/midi"
	"github.com/cwbudde/algo-graph/engine/processor"
	"github.com/cwbudde/algo-graph/nodes"
)

func ExampleRegistry_Create() {
	n, err := nodes.DefaultRegistry().Create(nodes.TypeGain)
	if err != nil {
		panic(err)
	}

	n.Parameter("volume").Set(-20)
	if err := n.Prepare(processor.PrepareContext{SampleRate: 48000, BlockSize: 4}); err != nil {
		panic(err)
	}

	audio := buffer.NewAudio(2, 4)
	audio.Fill(0, 1)
	audio.Fill(1, 1)

	n.Process(&processor.Block{
		Audio:     audio,
		CV:        buffer.NewAudio(0, 4),
		Midi:      midi.NewPipe(),
		Frames:    4,
		AudioIns:  2,
		AudioOuts: 2,
	})

	fmt.Println(n.Name(), nodes.TypeOf(n))
	fmt.Printf("%.2f\n", audio.Channel(0))
	// Output:
	// gain gain
	// [0.10 0.10 0.10 0.10]
}
