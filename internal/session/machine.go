// Package session drives one learner's tutoring conversation: sign-in, level
// selection, exercises with escalating hints, and the word-game break after
// three misses. The Machine is transport-agnostic; the TUI, the console
// command and tests all feed it utterances and render the messages it emits.
package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/diversion"
	"github.com/abhisek/lexi/internal/evaluate"
	"github.com/abhisek/lexi/internal/integrity"
	"github.com/abhisek/lexi/internal/store"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("session closed")

// Evaluator judges answers. *evaluate.Evaluator satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluate.Request) evaluate.Verdict
}

// Options configures a Machine. Repo and Evaluator are required; the rest
// have defaults.
type Options struct {
	Repo      store.ProgressRepo
	Evaluator Evaluator

	Catalog   *content.Catalog   // default content.Default()
	Monitor   *integrity.Monitor // default integrity.New(nil)
	Scheduler Scheduler          // default RealScheduler
	Notifier  Notifier           // default discards
	Rand      *rand.Rand         // diversion word choice
	Logger    *slog.Logger
	Now       func() time.Time
}

// Machine is the tutoring state machine. It is safe for concurrent use:
// Submit and deferred actions are serialized. State reads a snapshot taken
// after each transition, so it never waits on an evaluation in flight.
type Machine struct {
	id       string
	catalog  *content.Catalog
	repo     store.ProgressRepo
	eval     Evaluator
	monitor  *integrity.Monitor
	sched    Scheduler
	notifier Notifier
	rec      *Recorder
	rng      *rand.Rand
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	game     *diversion.Controller
	deferred *deferredAction
	closed   bool

	snap atomic.Pointer[State]
}

// deferredAction is a bot message scheduled for later. It runs only if the
// state version has not moved since it was scheduled.
type deferredAction struct {
	version uint64
	run     func() []Message
	stop    func() bool
}

// NewMachine creates a Machine in ModeAwaitingName and registers the
// tab-switch warning with the integrity monitor.
func NewMachine(opts Options) *Machine {
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	if opts.Monitor == nil {
		opts.Monitor = integrity.New(nil)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	id := uuid.New().String()
	logger := opts.Logger.With("session", id)
	m := &Machine{
		id:       id,
		catalog:  opts.Catalog,
		repo:     opts.Repo,
		eval:     opts.Evaluator,
		monitor:  opts.Monitor,
		sched:    opts.Scheduler,
		notifier: opts.Notifier,
		rec:      NewRecorder(opts.Notifier, logger),
		rng:      opts.Rand,
		logger:   logger,
		now:      opts.Now,
	}
	m.publish()
	m.monitor.OnTabSwitch(m.onTabSwitch)
	return m
}

// ID returns the session's unique identifier.
func (m *Machine) ID() string { return m.id }

// Greeting returns the opening bot message.
func (m *Machine) Greeting() Message {
	return botSay(greetingText)
}

// State returns a copy of the state as of the last completed transition.
func (m *Machine) State() State {
	return *m.snap.Load()
}

// publish stores the current state for State. Must be called with m.mu held.
func (m *Machine) publish() {
	st := m.state
	m.snap.Store(&st)
}

// Flush waits until every queued persistence write has been applied.
func (m *Machine) Flush() {
	m.rec.Flush()
}

// Close cancels any deferred message, detaches from the integrity monitor
// and drains pending writes.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.deferred != nil {
		m.deferred.stop()
		m.deferred = nil
	}
	m.mu.Unlock()

	m.monitor.OnTabSwitch(nil)
	m.rec.Close()
}

// Drain delivers the pending deferred announcement now instead of when its
// timer fires, and returns it. Scripted callers use it before Close so the
// last announcement is not cancelled.
func (m *Machine) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.publish()
	if m.closed || m.deferred == nil {
		return nil
	}
	m.deferred.stop()
	return m.flushDeferred()
}

// Submit feeds one learner utterance to the machine and returns the bot's
// replies. Blank input is ignored. A deferred announcement that has not
// fired yet is delivered first, ahead of the replies to this utterance.
func (m *Machine) Submit(ctx context.Context, utterance string) ([]Message, error) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.publish()
	if m.closed {
		return nil, ErrClosed
	}

	out := m.flushDeferred()
	switch m.state.Mode {
	case ModeAwaitingName:
		out = append(out, m.handleName(ctx, text)...)
	case ModeAwaitingLevel:
		out = append(out, m.handleLevel(text)...)
	case ModeInExercise:
		out = append(out, m.handleAnswer(ctx, text)...)
	case ModeInDiversion:
		out = append(out, m.handleGuess(text)...)
	}
	return out, nil
}

func (m *Machine) handleName(ctx context.Context, name string) []Message {
	m.state.Learner = name
	rec, created, err := m.repo.LoadOrCreate(ctx, name)
	if err != nil {
		m.logger.Error("initialize learner", "learner", name, "error", err)
		m.state.Mode = ModeAwaitingLevel
		m.changed()
		return []Message{{Sender: SenderBot, Text: initFailedText, Kind: KindError}}
	}
	m.logger.Info("learner signed in", "learner", name, "new", created)

	if lvl, idx, ok := m.resumePoint(rec); ok {
		m.state.ActiveLevel = lvl
		m.state.ExerciseIndex = idx
		m.state.CompletedCount = min(max(rec.CompletedExercises, 0), content.ExercisesPerLevel)
		m.enterExercise()
		return []Message{botSay(welcomeBackText(name, lvl.Exercises[idx].Question))}
	}

	m.state.Mode = ModeAwaitingLevel
	m.changed()
	return []Message{botSay(askLevelText(name))}
}

// resumePoint returns the level and exercise saved in rec, if they still
// exist in the catalog.
func (m *Machine) resumePoint(rec *store.ProgressRecord) (*content.Level, int, bool) {
	if rec == nil || rec.CurrentLevel == "" {
		return nil, 0, false
	}
	lvl, err := m.catalog.LevelByRange(rec.CurrentLevel)
	if err != nil {
		m.logger.Warn("saved level not in catalog", "level", rec.CurrentLevel)
		return nil, 0, false
	}
	if _, ok := lvl.Exercise(rec.CurrentExerciseIndex); !ok {
		return nil, 0, false
	}
	return lvl, rec.CurrentExerciseIndex, true
}

func (m *Machine) handleLevel(text string) []Message {
	if strings.EqualFold(text, "yes") {
		lvl := m.state.LastLevel
		if lvl == nil {
			return nil
		}
		m.startLevel(lvl)
		m.saveSnapshot(store.SnapshotPatch{
			CurrentLevel:         store.Ptr(lvl.Range.String()),
			CurrentExerciseIndex: store.Ptr(0),
			CompletedExercises:   store.Ptr(0),
		})
		return []Message{botSay(repeatLevelText(lvl))}
	}

	score, ok := parseLeadingInt(text)
	if !ok {
		return []Message{botSay(closingText)}
	}
	lvl, err := m.catalog.LevelFor(score)
	if err != nil {
		return []Message{botSay(closingText)}
	}

	m.startLevel(lvl)
	m.saveSnapshot(store.SnapshotPatch{
		CurrentLevel:         store.Ptr(lvl.Range.String()),
		CurrentExerciseIndex: store.Ptr(0),
		CompletedExercises:   store.Ptr(0),
	})
	m.appendSession(lvl, 0)
	m.logger.Info("level started", "learner", m.state.Learner, "level", lvl.Range.String(), "score", score)
	return []Message{botSay(startLevelText(lvl))}
}

func (m *Machine) startLevel(lvl *content.Level) {
	m.state.ActiveLevel = lvl
	m.state.ExerciseIndex = 0
	m.state.CompletedCount = 0
	m.state.Pending = nil
	m.enterExercise()
}

// enterExercise opens the exercise at ExerciseIndex.
func (m *Machine) enterExercise() {
	m.state.Mode = ModeInExercise
	m.state.AttemptCount = 0
	m.changed()
	m.monitor.StartExercise()
}

func (m *Machine) handleAnswer(ctx context.Context, text string) []Message {
	lvl := m.state.ActiveLevel
	ex, ok := m.state.CurrentExercise()
	if !ok {
		m.logger.Error("no open exercise", "mode", m.state.Mode)
		m.state.Mode = ModeAwaitingLevel
		m.changed()
		return nil
	}

	verdict := m.eval.Evaluate(ctx, evaluate.Request{Response: text, Exercise: ex})
	m.state.AttemptCount++
	attempt := m.state.AttemptCount
	m.recordAttempt(lvl, verdict, attempt)

	if verdict.Correct {
		return m.onCorrect(lvl, verdict)
	}

	if attempt < MaxAttempts {
		m.changed()
		if hint, ok := HintFor(ex.Hints, attempt); ok {
			return []Message{feedback(hintText(verdict.Feedback, hint), false)}
		}
		return []Message{feedback(verdict.Feedback, false)}
	}

	pending := ex
	m.state.Pending = &pending
	m.state.PendingIndex = m.state.ExerciseIndex
	m.state.Mode = ModeInDiversion
	m.changed()
	m.game = diversion.NewController(m.catalog.Words(), m.rng)
	m.logger.Info("starting diversion", "learner", m.state.Learner, "level", lvl.Range.String(), "exercise", m.state.ExerciseIndex)

	game := m.game
	m.schedule(DiversionStartDelay, func() []Message {
		return []Message{botSay(diversionStartText(game.IssueRound()))}
	})
	return []Message{feedback(revealText(verdict.Feedback, ex.Expected), false)}
}

func (m *Machine) recordAttempt(lvl *content.Level, v evaluate.Verdict, attempt int) {
	det := m.monitor.DetectionData()
	if det.Suspicious {
		m.logger.Warn("suspicious attempt",
			"learner", m.state.Learner,
			"level", lvl.Range.String(),
			"exercise", m.state.ExerciseIndex,
			"tab_switches", det.TabSwitches,
			"response_time", det.ResponseTime,
		)
	}
	m.logger.Debug("attempt", "correct", v.Correct, "source", v.Source, "attempt", attempt)

	name := m.state.Learner
	entry := store.AttemptEntry{
		Level:         lvl.Range.String(),
		ExerciseIndex: m.state.ExerciseIndex,
		Correct:       v.Correct,
		AttemptNumber: attempt,
		Timestamp:     m.now().UnixMilli(),
	}
	m.rec.Enqueue("append attempt", func(ctx context.Context) error {
		return m.repo.AppendAttempt(ctx, name, entry)
	})
}

func (m *Machine) onCorrect(lvl *content.Level, v evaluate.Verdict) []Message {
	out := []Message{
		feedback(v.Feedback, true),
		{Sender: SenderBot, Text: celebrateText, Kind: KindCelebrate},
	}

	m.state.CompletedCount++
	completed := m.state.CompletedCount
	next := m.state.ExerciseIndex + 1

	if next < len(lvl.Exercises) && completed < content.ExercisesPerLevel {
		m.state.ExerciseIndex = next
		m.enterExercise()
		m.saveSnapshot(store.SnapshotPatch{
			CurrentExerciseIndex: store.Ptr(next),
			CompletedExercises:   store.Ptr(completed),
		})
		m.appendSession(lvl, completed)

		question := lvl.Exercises[next].Question
		m.schedule(NextExerciseDelay, func() []Message {
			return []Message{botSay(nextExerciseText(question))}
		})
		return out
	}

	m.state.LastLevel = lvl
	m.state.ActiveLevel = nil
	m.state.ExerciseIndex = 0
	m.state.CompletedCount = 0
	m.state.AttemptCount = 0
	m.state.Mode = ModeAwaitingLevel
	m.changed()
	m.saveSnapshot(store.SnapshotPatch{
		ClearLevel:           true,
		CurrentExerciseIndex: store.Ptr(0),
		CompletedExercises:   store.Ptr(0),
	})
	m.appendSession(lvl, completed)
	m.logger.Info("level completed", "learner", m.state.Learner, "level", lvl.Range.String())

	m.schedule(NextExerciseDelay, func() []Message {
		return []Message{botSay(levelCompleteText)}
	})
	return out
}

func (m *Machine) handleGuess(text string) []Message {
	if m.game == nil {
		m.game = diversion.NewController(m.catalog.Words(), m.rng)
	}
	res := m.game.SubmitGuess(text)
	m.changed()

	var out []Message
	switch res.Result {
	case diversion.Solved:
		out = append(out, botSay(wordSolvedText))
	case diversion.SecondHint:
		out = append(out, botSay(secondHintText(res.Round)))
	case diversion.Revealed:
		out = append(out, botSay(revealWordText(res.Round)))
	}

	switch {
	case res.Signal == diversion.Complete:
		m.returnFromDiversion()
	case res.Next != nil:
		next := *res.Next
		m.schedule(NextWordDelay, func() []Message {
			return []Message{botSay(nextWordText(next))}
		})
	}
	return out
}

func (m *Machine) returnFromDiversion() {
	m.game = nil
	pending := m.state.Pending
	m.state.Pending = nil
	if pending == nil || m.state.ActiveLevel == nil {
		m.state.Mode = ModeAwaitingLevel
		m.changed()
		return
	}

	m.state.ExerciseIndex = m.state.PendingIndex
	m.enterExercise()
	question := pending.Question
	m.schedule(ReturnDelay, func() []Message {
		return []Message{botSay(returnText(question))}
	})
}

func (m *Machine) onTabSwitch(ev integrity.Event) {
	m.logger.Info("learner left the tutor", "count", ev.Count)
	m.notifier.Notify(Message{Sender: SenderBot, Text: tabSwitchText, Kind: KindIntegrity})
}

func (m *Machine) changed() {
	m.state.Version++
}

// schedule defers run by d. Must be called with m.mu held, after the state
// change it belongs to.
func (m *Machine) schedule(d time.Duration, run func() []Message) {
	if m.deferred != nil {
		m.deferred.stop()
	}
	act := &deferredAction{version: m.state.Version, run: run}
	act.stop = m.sched.AfterFunc(d, func() { m.fire(act) })
	m.deferred = act
}

func (m *Machine) fire(act *deferredAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.deferred != act || act.version != m.state.Version {
		m.logger.Debug("dropping stale deferred message", "scheduled_at", act.version, "now", m.state.Version)
		return
	}
	m.deferred = nil
	msgs := act.run()
	m.changed()
	m.publish()
	for _, msg := range msgs {
		m.notifier.Notify(msg)
	}
}

func (m *Machine) flushDeferred() []Message {
	act := m.deferred
	if act == nil {
		return nil
	}
	m.deferred = nil
	msgs := act.run()
	m.changed()
	return msgs
}

func (m *Machine) saveSnapshot(patch store.SnapshotPatch) {
	name := m.state.Learner
	m.rec.Enqueue("update snapshot", func(ctx context.Context) error {
		return m.repo.UpdateSnapshot(ctx, name, patch)
	})
}

func (m *Machine) appendSession(lvl *content.Level, completed int) {
	name := m.state.Learner
	now := m.now()
	entry := store.SessionEntry{
		Level:              lvl.Range.String(),
		Date:               now.UTC().Format("2006-01-02"),
		CompletedExercises: completed,
		Timestamp:          now.UnixMilli(),
	}
	m.rec.Enqueue("append session", func(ctx context.Context) error {
		return m.repo.AppendSession(ctx, name, entry)
	})
}

// parseLeadingInt reads an optionally signed run of digits at the start of
// s, ignoring whatever follows: "42 please" is 42, "abc" is not a number.
// Values too large for a score saturate rather than fail.
func parseLeadingInt(s string) (int, bool) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}

	digits := strings.TrimLeft(s[start:i], "0")
	n := 0
	if len(digits) > 9 {
		n = 1_000_000_000
	} else if digits != "" {
		n, _ = strconv.Atoi(digits)
	}
	if neg {
		n = -n
	}
	return n, true
}
