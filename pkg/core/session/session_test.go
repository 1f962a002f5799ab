package session

import (
	"errors"
	"sync"
	"testing"
)

func TestStore_BeginRejectsConcurrentExchange(t *testing.T) {
	st := NewStore()

	release, err := st.Begin("s1")
	if err != nil {
		t.Fatalf("first Begin: %v", err)
	}

	if _, err := st.Begin("s1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Begin err=%v, want ErrBusy", err)
	}

	// Other sessions are unaffected.
	otherRelease, err := st.Begin("s2")
	if err != nil {
		t.Fatalf("Begin on independent session: %v", err)
	}
	otherRelease()

	release()
	release() // idempotent

	if _, err := st.Begin("s1"); err != nil {
		t.Fatalf("Begin after release: %v", err)
	}
}

func TestStore_HistoryAlternatesInRequestOrder(t *testing.T) {
	st := NewStore()

	const n = 5
	for i := 0; i < n; i++ {
		release, err := st.Begin("s1")
		if err != nil {
			t.Fatalf("Begin #%d: %v", i, err)
		}
		st.Append("s1", "question", "answer")
		release()
	}

	hist := st.History("s1")
	if len(hist) != 2*n {
		t.Fatalf("history length=%d, want %d", len(hist), 2*n)
	}
	for i, turn := range hist {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if turn.Role != want {
			t.Fatalf("turn %d role=%q, want %q", i, turn.Role, want)
		}
	}
}

func TestStore_ReleaseAfterDelete(t *testing.T) {
	st := NewStore()

	release, err := st.Begin("s1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !st.Delete("s1") {
		t.Fatal("Delete reported session missing")
	}
	release() // must not resurrect or panic

	if st.Count() != 0 {
		t.Fatalf("count=%d, want 0", st.Count())
	}
}

func TestStore_GetAndDelete(t *testing.T) {
	st := NewStore()

	if _, err := st.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing err=%v, want ErrNotFound", err)
	}

	release, err := st.Begin("s1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	info, err := st.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !info.Processing {
		t.Fatal("expected processing=true while exchange in flight")
	}
	if info.Turns != 0 {
		t.Fatalf("turns=%d, want 0", info.Turns)
	}

	release()
	st.Append("s1", "hi", "hello")

	info, err = st.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.Processing {
		t.Fatal("expected processing=false after release")
	}
	if info.Turns != 2 {
		t.Fatalf("turns=%d, want 2", info.Turns)
	}

	if st.Delete("s1"); st.Count() != 0 {
		t.Fatalf("count=%d after delete, want 0", st.Count())
	}
	if st.Delete("s1") {
		t.Fatal("second Delete reported session present")
	}
}

func TestStore_ConcurrentSessionsIndependent(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%8))
			release, err := st.Begin(id)
			if errors.Is(err, ErrBusy) {
				return
			}
			if err != nil {
				t.Errorf("Begin(%s): %v", id, err)
				return
			}
			st.Append(id, "u", "a")
			release()
		}(i)
	}
	wg.Wait()

	if st.Count() == 0 || st.Count() > 8 {
		t.Fatalf("count=%d, want 1..8", st.Count())
	}
}
