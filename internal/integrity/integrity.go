// Package integrity watches for signs that an answer was not the learner's
// own work: leaving the tutor while an exercise is open, or answering
// implausibly fast or slow.
package integrity

import (
	"sync"
	"time"
)

// Thresholds for DetectionData.Suspicious.
const (
	SuspiciousTabSwitches = 2
	MinResponseTime       = 5 * time.Second
	MaxResponseTime       = 5 * time.Minute
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Event is passed to the tab-switch callback.
type Event struct {
	At    time.Time
	Count int
}

// Detection summarises the current exercise.
type Detection struct {
	TabSwitches  int
	StartTime    time.Time
	ResponseTime time.Duration
	Suspicious   bool
}

// Monitor counts focus losses for the current exercise. It is safe for
// concurrent use.
type Monitor struct {
	clock Clock

	mu          sync.Mutex
	tabSwitches int
	start       time.Time
	onSwitch    func(Event)
}

// New creates a monitor. A nil clock means SystemClock.
func New(clock Clock) *Monitor {
	if clock == nil {
		clock = SystemClock
	}
	return &Monitor{clock: clock, start: clock.Now()}
}

// StartExercise resets the counter and the start time.
func (m *Monitor) StartExercise() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabSwitches = 0
	m.start = m.clock.Now()
}

// OnTabSwitch registers fn to run on every focus loss, replacing any earlier
// callback. A nil fn unregisters.
func (m *Monitor) OnTabSwitch(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSwitch = fn
}

// RecordFocusLoss counts one focus loss and invokes the callback once.
// The callback runs without the monitor's lock held.
func (m *Monitor) RecordFocusLoss() {
	m.mu.Lock()
	m.tabSwitches++
	ev := Event{At: m.clock.Now(), Count: m.tabSwitches}
	fn := m.onSwitch
	m.mu.Unlock()

	if fn != nil {
		fn(ev)
	}
}

// DetectionData reports the state of the current exercise.
func (m *Monitor) DetectionData() Detection {
	m.mu.Lock()
	defer m.mu.Unlock()
	elapsed := m.clock.Now().Sub(m.start)
	return Detection{
		TabSwitches:  m.tabSwitches,
		StartTime:    m.start,
		ResponseTime: elapsed,
		Suspicious: m.tabSwitches >= SuspiciousTabSwitches ||
			elapsed < MinResponseTime ||
			elapsed > MaxResponseTime,
	}
}
