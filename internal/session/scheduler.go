package session

import (
	"sort"
	"sync"
	"time"
)

// Delays before deferred bot messages.
const (
	NextExerciseDelay   = 2000 * time.Millisecond
	DiversionStartDelay = 2000 * time.Millisecond
	NextWordDelay       = 1500 * time.Millisecond
	ReturnDelay         = 1500 * time.Millisecond
)

// Scheduler runs fn once after d. The returned stop function cancels the
// call if it has not started and reports whether it did so.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// RealScheduler uses time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// ManualScheduler runs scheduled functions only when Advance is called. It
// is meant for tests.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	due time.Duration
	seq int
	fn  func()
}

// NewManualScheduler creates a ManualScheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTask{due: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, other := range s.tasks {
			if other == t {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d and runs every task that came due,
// in due order. Tasks scheduled by those tasks run too if they fall due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool {
			if s.tasks[i].due != s.tasks[j].due {
				return s.tasks[i].due < s.tasks[j].due
			}
			return s.tasks[i].seq < s.tasks[j].seq
		})
		if len(s.tasks) == 0 || s.tasks[0].due > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		t := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.now = t.due
		s.mu.Unlock()

		t.fn()
	}
}

// Fire runs every pending task regardless of its due time, including stale
// ones the caller may expect to be ignored.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	last := s.now
	for _, t := range s.tasks {
		last = max(last, t.due)
	}
	d := last - s.now
	s.mu.Unlock()
	s.Advance(d)
}

// Now returns the scheduler's current offset from time zero.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of tasks not yet run or stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
