package async

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopFIFO(t *testing.T) {
	t.Parallel()

	l := NewLoop(8)
	var order []int
	for i := range 5 {
		if !l.Post(func() { order = append(order, i) }) {
			t.Fatalf("post %d refused", i)
		}
	}

	if l.Pending() != 5 {
		t.Fatalf("Pending() = %d, want 5", l.Pending())
	}

	if n := l.Dispatch(); n != 5 {
		t.Fatalf("Dispatch() = %d, want 5", n)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestLoopFullQueueDrops(t *testing.T) {
	t.Parallel()

	l := NewLoop(1)
	if !l.Post(func() {}) {
		t.Fatal("first post refused")
	}

	if l.Post(func() {}) {
		t.Fatal("post on full queue accepted")
	}

	if l.Post(nil) {
		t.Fatal("nil task accepted")
	}

	if l.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", l.Dropped())
	}
}

func TestLoopDispatchRunsNestedPosts(t *testing.T) {
	t.Parallel()

	l := NewLoop(4)
	ran := false
	l.Post(func() {
		l.Post(func() { ran = true })
	})

	if n := l.Dispatch(); n != 2 || !ran {
		t.Fatalf("Dispatch() = %d ran=%v, want 2 true", n, ran)
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestUpdaterCoalesces(t *testing.T) {
	t.Parallel()

	l := NewLoop(8)
	calls := 0
	u := NewUpdater(l, func() { calls++ })

	for range 10 {
		u.Trigger()
	}

	if !u.Pending() || l.Pending() != 1 {
		t.Fatalf("pending=%v queued=%d, want true and 1", u.Pending(), l.Pending())
	}

	l.Dispatch()

	if calls != 1 || u.Pending() {
		t.Fatalf("calls=%d pending=%v, want 1 false", calls, u.Pending())
	}

	u.Trigger()
	l.Dispatch()

	if calls != 2 {
		t.Fatalf("calls=%d, want 2", calls)
	}
}

func TestUpdaterReportsRefusedTrigger(t *testing.T) {
	t.Parallel()

	l := NewLoop(1)
	if !l.Post(func() {}) {
		t.Fatal("first post refused")
	}

	calls := 0
	u := NewUpdater(l, func() { calls++ })

	if u.Trigger() {
		t.Fatal("Trigger on a full loop reported success")
	}
	if u.Pending() {
		t.Fatal("refused trigger left the updater pending")
	}

	l.Dispatch()

	if !u.Trigger() || !u.Trigger() {
		t.Fatal("Trigger with room in the loop failed")
	}

	l.Dispatch()
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}

	if NewUpdater(nil, func() {}).Trigger() {
		t.Fatal("Trigger without a loop reported success")
	}
}

func TestUpdaterHandleNowAndCancel(t *testing.T) {
	t.Parallel()

	l := NewLoop(8)
	calls := 0
	u := NewUpdater(l, func() { calls++ })

	u.Trigger()
	if !u.HandleNow() || calls != 1 {
		t.Fatal("HandleNow did not run pending update")
	}

	l.Dispatch()
	if calls != 1 {
		t.Fatal("queued run fired after HandleNow")
	}

	u.Trigger()
	u.Cancel()
	l.Dispatch()

	if calls != 1 || u.HandleNow() {
		t.Fatal("cancelled update ran")
	}
}
