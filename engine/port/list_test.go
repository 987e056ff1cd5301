package port

import (
	"testing"

	"github.com/cwbudde/algo-graph/internal/assert"
)

func stereoEffectPorts() *List {
	b := NewBuilder()
	b.Add(Audio, true, "in_1", "In 1")
	b.Add(Audio, true, "in_2", "In 2")
	b.Add(Audio, false, "out_1", "Out 1")
	b.Add(Audio, false, "out_2", "Out 2")
	b.AddControl(true, "volume", "Volume", -70, 12, 0)
	b.Add(Midi, true, "midi_in", "MIDI In")

	return b.List()
}

func TestListBuilderAssignsChannels(t *testing.T) {
	t.Parallel()

	l := stereoEffectPorts()
	if l.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", l.Len())
	}

	tests := []struct {
		index   uint32
		typ     Type
		channel uint32
		input   bool
	}{
		{0, Audio, 0, true},
		{1, Audio, 1, true},
		{2, Audio, 0, false},
		{3, Audio, 1, false},
		{4, Control, 0, true},
		{5, Midi, 0, true},
	}

	for _, tt := range tests {
		p, ok := l.Port(tt.index)
		if !ok {
			t.Fatalf("port %d missing", tt.index)
		}

		if p.Type != tt.typ || p.Channel != tt.channel || p.Input != tt.input {
			t.Errorf("port %d = %+v, want type=%v channel=%d input=%v", tt.index, p, tt.typ, tt.channel, tt.input)
		}
	}

	ctl, _ := l.Port(4)
	if ctl.Min != -70 || ctl.Max != 12 || ctl.Default != 0 {
		t.Errorf("control range = [%v %v %v]", ctl.Min, ctl.Max, ctl.Default)
	}
}

func TestListKeepsIndexOrder(t *testing.T) {
	t.Parallel()

	l := NewList(
		Description{Type: Audio, Index: 2, Channel: 0},
		Description{Type: Audio, Index: 0, Channel: 0, Input: true},
		Description{Type: Audio, Index: 1, Channel: 1, Input: true},
	)

	ports := l.Ports()
	for i, p := range ports {
		if p.Index != uint32(i) {
			t.Fatalf("ports[%d].Index = %d", i, p.Index)
		}
	}
}

func TestListIndexUniqueness(t *testing.T) {
	t.Parallel()

	l := stereoEffectPorts()
	ports := l.Ports()

	for i := range ports {
		for j := range ports {
			if i != j && ports[i].Index == ports[j].Index {
				t.Fatalf("ports %d and %d share index %d", i, j, ports[i].Index)
			}
		}
	}
}

func TestListRefusesDuplicates(t *testing.T) {
	t.Parallel()

	if assert.Enabled {
		t.Skip("duplicates panic in debug builds")
	}

	l := NewList(Description{Type: Audio, Index: 0, Channel: 0, Input: true})

	if l.Add(Description{Type: Midi, Index: 0}) {
		t.Error("duplicate index accepted")
	}

	if l.Add(Description{Type: Audio, Index: 1, Channel: 0, Input: true}) {
		t.Error("duplicate channel triple accepted")
	}

	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestListPortReturnsCopy(t *testing.T) {
	t.Parallel()

	l := stereoEffectPorts()
	p, _ := l.Port(0)
	p.Name = "changed"

	again, _ := l.Port(0)
	if again.Name != "In 1" {
		t.Fatalf("Port() leaked a reference, name = %q", again.Name)
	}
}

func TestListLookupsReturnSentinels(t *testing.T) {
	t.Parallel()

	l := stereoEffectPorts()

	if got := l.ChannelForPort(3); got != 1 {
		t.Errorf("ChannelForPort(3) = %d, want 1", got)
	}

	if got := l.ChannelForPort(99); got != InvalidChannel {
		t.Errorf("ChannelForPort(99) = %d, want InvalidChannel", got)
	}

	if got := l.PortForChannel(Audio, 1, false); got != 3 {
		t.Errorf("PortForChannel(audio, 1, out) = %d, want 3", got)
	}

	if got := l.PortForChannel(CV, 0, true); got != InvalidPort {
		t.Errorf("PortForChannel(cv) = %d, want InvalidPort", got)
	}

	if got := l.IndexForSymbol("volume"); got != 4 {
		t.Errorf("IndexForSymbol(volume) = %d, want 4", got)
	}

	if got := l.IndexForSymbol("nope"); got != InvalidPort {
		t.Errorf("IndexForSymbol(nope) = %d, want InvalidPort", got)
	}

	if !l.IsInput(0, false) || l.IsInput(2, true) || !l.IsInput(99, true) {
		t.Error("IsInput returned wrong direction or ignored default")
	}

	if !l.IsOutput(2, false) || l.IsOutput(99, false) {
		t.Error("IsOutput returned wrong direction or ignored default")
	}

	if l.TypeOf(5) != Midi || l.TypeOf(99) != Unknown {
		t.Error("TypeOf mismatch")
	}

	if l.Count(Audio, true) != 2 || l.Count(Midi, false) != 0 {
		t.Error("Count mismatch")
	}

	var nilList *List
	if nilList.Len() != 0 || nilList.PortForChannel(Audio, 0, true) != InvalidPort {
		t.Error("nil list should behave as empty")
	}
}

func TestListSwap(t *testing.T) {
	t.Parallel()

	a := stereoEffectPorts()
	b := NewList()

	a.Swap(b)

	if a.Len() != 0 || b.Len() != 6 {
		t.Fatalf("after swap a=%d b=%d, want 0 and 6", a.Len(), b.Len())
	}

	c := b.Clone()
	c.Clear()

	if b.Len() != 6 {
		t.Fatal("Clone shares storage with the original")
	}
}
