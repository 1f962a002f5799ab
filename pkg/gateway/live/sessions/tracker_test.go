package sessions

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTracker_RegisterUnregister(t *testing.T) {
	tr := NewTracker()
	if tr.Count() != 0 {
		t.Fatalf("initial count=%d", tr.Count())
	}

	u1 := tr.Register("s1", Handle{})
	u2 := tr.Register("s2", Handle{})
	if tr.Count() != 2 {
		t.Fatalf("count=%d, want 2", tr.Count())
	}

	u1()
	u1() // idempotent
	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1", tr.Count())
	}

	u2()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if !tr.Wait(ctx) {
		t.Fatal("Wait should complete after all unregister")
	}
}

func TestTracker_ReregisterSupersedes(t *testing.T) {
	tr := NewTracker()

	var oldCanceled atomic.Bool
	tr.Register("s1", Handle{Cancel: func() { oldCanceled.Store(true) }})
	u2 := tr.Register("s1", Handle{})

	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1", tr.Count())
	}

	tr.CancelAll()
	if oldCanceled.Load() {
		t.Fatal("superseded handle should not be cancelable")
	}
	u2()
}

func TestTracker_NotifyAndCancelAll(t *testing.T) {
	tr := NewTracker()

	var notified atomic.Int32
	var canceled atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		tr.Register(id, Handle{
			Notify: func(string) error { notified.Add(1); return nil },
			Cancel: func() { canceled.Add(1) },
		})
	}

	if sent := tr.NotifyAll("shutting down"); sent != 3 {
		t.Fatalf("sent=%d, want 3", sent)
	}
	if n := tr.CancelAll(); n != 3 {
		t.Fatalf("canceled=%d, want 3", n)
	}
	if notified.Load() != 3 || canceled.Load() != 3 {
		t.Fatalf("notified=%d canceled=%d", notified.Load(), canceled.Load())
	}
}

func TestTracker_WaitTimesOut(t *testing.T) {
	tr := NewTracker()
	defer tr.Register("s1", Handle{})()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if tr.Wait(ctx) {
		t.Fatal("Wait should time out while a connection is registered")
	}
}
