package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestManualSchedulerOrder(t *testing.T) {
	s := NewManualScheduler()
	var got []string
	s.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	s.AfterFunc(time.Second, func() { got = append(got, "a") })
	stop := s.AfterFunc(1500*time.Millisecond, func() { got = append(got, "stopped") })
	s.AfterFunc(2*time.Second, func() {
		got = append(got, "c")
		s.AfterFunc(0, func() { got = append(got, "d") })
	})

	if !stop() {
		t.Fatal("stop returned false for pending task")
	}
	if stop() {
		t.Fatal("second stop returned true")
	}

	s.Advance(time.Second)
	if !slices.Equal(got, []string{"a"}) {
		t.Fatalf("after 1s: %v", got)
	}
	s.Advance(time.Second)
	if !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("after 2s: %v", got)
	}
	if s.Pending() != 0 || s.Now() != 2*time.Second {
		t.Errorf("pending=%d now=%v", s.Pending(), s.Now())
	}
}

func TestManualSchedulerFire(t *testing.T) {
	s := NewManualScheduler()
	ran := 0
	s.AfterFunc(time.Hour, func() { ran++ })
	s.Fire()
	s.Fire()
	if ran != 1 {
		t.Fatalf("ran = %d", ran)
	}
}

func TestRealSchedulerStop(t *testing.T) {
	stop := RealScheduler{}.AfterFunc(time.Hour, func() { t.Error("should not run") })
	if !stop() {
		t.Fatal("stop returned false")
	}
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := NewRecorder(nil, nil)
	defer r.Close()

	var mu sync.Mutex
	var got []int
	for i := range 100 {
		r.Enqueue("write", func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})
	}
	r.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("ran %d writes", len(got))
	}
	if !slices.IsSorted(got) {
		t.Fatalf("writes out of order: %v", got)
	}
}

func TestRecorderReportsFailure(t *testing.T) {
	notes := &recordingNotifier{}
	r := NewRecorder(notes, nil)
	r.Enqueue("bad", func(context.Context) error { return errors.New("boom") })
	r.Enqueue("good", func(context.Context) error { return nil })
	r.Close()

	got := notes.Take()
	if len(got) != 1 || got[0].Text != "Something went wrong. Please try again." || got[0].Kind != KindError {
		t.Fatalf("notes = %+v", got)
	}
}

func TestRecorderDropsAfterClose(t *testing.T) {
	r := NewRecorder(nil, nil)
	r.Close()
	r.Enqueue("late", func(context.Context) error {
		t.Error("write ran after close")
		return nil
	})
	r.Flush()
}

func TestChanNotifier(t *testing.T) {
	n := NewChanNotifier(2)
	n.Notify(botSay("one"))
	n.Close()
	n.Notify(botSay("dropped"))
	n.Close()

	var got []string
	for m := range n.C() {
		got = append(got, m.Text)
	}
	if !slices.Equal(got, []string{"one"}) {
		t.Fatalf("got %v", got)
	}
}
