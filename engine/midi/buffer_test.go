package midi

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func frames(b *Buffer) []int {
	out := make([]int, 0, b.Len())
	b.Each(func(_ midi.Message, frame int) {
		out = append(out, frame)
	})

	return out
}

func TestBufferKeepsFrameOrder(t *testing.T) {
	t.Parallel()

	b := NewBuffer(8, 64)
	b.Add(midi.NoteOn(0, 60, 100), 10)
	b.Add(midi.NoteOn(0, 62, 100), 2)
	b.Add(midi.NoteOn(0, 64, 100), 10)
	b.Add(midi.NoteOn(0, 65, 100), 5)

	got := frames(b)
	want := []int{2, 5, 10, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frames = %v, want %v", got, want)
		}
	}

	// Events at the same frame keep insertion order.
	msg, _ := b.Event(2)
	var ch, key, vel uint8
	if !msg.GetNoteOn(&ch, &key, &vel) || key != 60 {
		t.Fatalf("event 2 = %v, want note 60", msg)
	}
}

func TestBufferCapacity(t *testing.T) {
	t.Parallel()

	b := NewBuffer(2, 64)
	if !b.Add(midi.NoteOn(0, 60, 1), 0) || !b.Add(midi.NoteOn(0, 61, 1), 0) {
		t.Fatal("adds within capacity failed")
	}

	if b.Add(midi.NoteOn(0, 62, 1), 0) {
		t.Fatal("add beyond event capacity succeeded")
	}

	small := NewBuffer(8, 4)
	if !small.Add(midi.NoteOn(0, 60, 1), 0) {
		t.Fatal("first add failed")
	}

	if small.Add(midi.NoteOn(0, 61, 1), 0) {
		t.Fatal("add beyond byte capacity succeeded")
	}

	if b.Add(nil, 0) {
		t.Fatal("empty message accepted")
	}
}

func TestBufferClearRange(t *testing.T) {
	t.Parallel()

	b := NewBuffer(8, 64)
	for _, f := range []int{0, 3, 4, 7} {
		b.Add(midi.NoteOn(0, 60, 1), f)
	}

	b.ClearRange(3, 2)

	got := frames(b)
	if len(got) != 2 || got[0] != 0 || got[1] != 7 {
		t.Fatalf("frames = %v, want [0 7]", got)
	}

	b.Clear()
	if b.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", b.Len())
	}
}

func TestBufferAddFromAndCopy(t *testing.T) {
	t.Parallel()

	src := NewBuffer(8, 64)
	src.Add(midi.NoteOn(1, 60, 1), 1)
	src.Add(midi.NoteOn(1, 61, 1), 5)
	src.Add(midi.NoteOn(1, 62, 1), 9)

	dst := NewBuffer(8, 64)
	dst.Add(midi.NoteOff(1, 40), 0)
	dst.AddFrom(src, 4, 8, 100)

	got := frames(dst)
	if len(got) != 3 || got[1] != 105 || got[2] != 109 {
		t.Fatalf("frames = %v, want [0 105 109]", got)
	}

	dst.CopyFrom(src)
	if dst.Len() != 3 {
		t.Fatalf("Len() = %d after CopyFrom, want 3", dst.Len())
	}

	// Copies do not alias the source arena.
	msg, _ := dst.Event(0)
	msg[1] = 0
	orig, _ := src.Event(0)
	if orig[1] != 60 {
		t.Fatal("CopyFrom aliased source data")
	}
}

func TestBufferSwap(t *testing.T) {
	t.Parallel()

	a := NewBuffer(4, 16)
	b := NewBuffer(4, 16)
	a.Add(midi.NoteOn(0, 1, 1), 0)

	a.Swap(b)

	if a.Len() != 0 || b.Len() != 1 {
		t.Fatalf("after swap a=%d b=%d", a.Len(), b.Len())
	}
}
