package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrLearnerNotFound is returned when a write targets a learner that has no
// progress record.
var ErrLearnerNotFound = errors.New("learner not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Purpose keeps only LLM events with this label. Empty matches all.
	Purpose string
	// FailedOnly keeps only unsuccessful calls.
	FailedOnly bool
}

// SessionEntry is one row of a learner's session log.
type SessionEntry struct {
	Level              string `json:"level" bson:"level"`
	Date               string `json:"date" bson:"date"`
	CompletedExercises int    `json:"completedExercises" bson:"completedExercises"`
	Timestamp          int64  `json:"timestamp" bson:"timestamp"`
}

// AttemptEntry is one evaluated answer.
type AttemptEntry struct {
	Level         string `json:"level" bson:"level"`
	ExerciseIndex int    `json:"exerciseId" bson:"exerciseId"`
	Correct       bool   `json:"isCorrect" bson:"isCorrect"`
	AttemptNumber int    `json:"attemptNumber" bson:"attemptNumber"`
	Timestamp     int64  `json:"timestamp" bson:"timestamp"`
}

// ProgressRecord is the persisted state of one learner.
type ProgressRecord struct {
	Key  string `json:"key" bson:"_id"`
	Name string `json:"name" bson:"name"`
	// CurrentLevel is the active range ("21-40"), or "" when none is active.
	CurrentLevel         string         `json:"currentLevel" bson:"currentLevel"`
	CurrentExerciseIndex int            `json:"currentExerciseIndex" bson:"currentExerciseIndex"`
	CompletedExercises   int            `json:"completedExercises" bson:"completedExercises"`
	Sessions             []SessionEntry `json:"sessions" bson:"sessions"`
	Attempts             []AttemptEntry `json:"attempts" bson:"attempts"`
}

// SnapshotPatch is a partial update of the progress snapshot. Nil fields
// are left unchanged.
type SnapshotPatch struct {
	CurrentLevel         *string
	ClearLevel           bool // sets the level to null; wins over CurrentLevel
	CurrentExerciseIndex *int
	CompletedExercises   *int
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

// ProgressRepo is the document store for learner progress.
type ProgressRepo interface {
	// LoadOrCreate returns the learner's record, creating it with the
	// initial snapshot if absent. created reports whether it was created.
	LoadOrCreate(ctx context.Context, name string) (rec *ProgressRecord, created bool, err error)

	// Get returns the learner's record, or nil if none exists.
	Get(ctx context.Context, name string) (*ProgressRecord, error)

	// UpdateSnapshot merges patch into the learner's snapshot.
	UpdateSnapshot(ctx context.Context, name string, patch SnapshotPatch) error

	// AppendSession appends to the session log.
	AppendSession(ctx context.Context, name string, entry SessionEntry) error

	// AppendAttempt appends to the attempt log.
	AppendAttempt(ctx context.Context, name string, entry AttemptEntry) error

	// Watch delivers the current record and then a fresh copy after every
	// change. The channel is closed when ctx is done.
	Watch(ctx context.Context, name string) (<-chan *ProgressRecord, error)

	// Reset deletes the learner's record and logs.
	Reset(ctx context.Context, name string) error
}

// LearnerKey normalizes a learner name into its storage key.
func LearnerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorKind    string // e.g. "rate_limit", "blocked"; empty on success
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
// FailureCount is the number of failed calls with one error kind.
type FailureCount struct {
	Kind  string
	Calls int
}

type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event by ID.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// LLMFailuresByKind counts failed calls per error kind, most frequent
	// first.
	LLMFailuresByKind(ctx context.Context) ([]FailureCount, error)
}
