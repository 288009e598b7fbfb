package session

import "github.com/abhisek/lexi/internal/content"

// Mode is the phase of the tutoring conversation.
type Mode int

const (
	ModeAwaitingName  Mode = iota // Waiting for the learner to say who they are
	ModeAwaitingLevel             // Waiting for a severity score or "yes"
	ModeInExercise                // An exercise is open for answers
	ModeInDiversion               // Playing the word game after three misses
)

func (m Mode) String() string {
	switch m {
	case ModeAwaitingName:
		return "awaiting-name"
	case ModeAwaitingLevel:
		return "awaiting-level"
	case ModeInExercise:
		return "in-exercise"
	case ModeInDiversion:
		return "in-diversion"
	default:
		return "unknown"
	}
}

// MaxAttempts is the number of answers allowed before the diversion.
const MaxAttempts = 3

// State is the mutable per-learner session state.
type State struct {
	// Learner is the name as the learner typed it.
	Learner string

	// ActiveLevel is the level being worked on (nil outside an exercise).
	ActiveLevel *content.Level

	// LastLevel is the most recently completed level, repeated by "yes".
	LastLevel *content.Level

	// ExerciseIndex is the open exercise within ActiveLevel (0..2).
	ExerciseIndex int

	// CompletedCount is the number of exercises solved in ActiveLevel.
	CompletedCount int

	// AttemptCount is the number of answers given to the open exercise.
	AttemptCount int

	Mode Mode

	// Pending is the exercise put aside while the diversion runs.
	Pending      *content.Exercise
	PendingIndex int

	// Version increases on every state change. Deferred actions carry the
	// version they were scheduled at and are dropped if it moved on.
	Version uint64
}

// CurrentExercise returns the open exercise, if any.
func (s *State) CurrentExercise() (content.Exercise, bool) {
	if s.ActiveLevel == nil {
		return content.Exercise{}, false
	}
	return s.ActiveLevel.Exercise(s.ExerciseIndex)
}

// Sender identifies who wrote a message.
type Sender string

const (
	SenderBot  Sender = "bot"
	SenderUser Sender = "user"
)

// Kind classifies a message for the chat surface.
type Kind string

const (
	KindChat      Kind = "chat"
	KindCelebrate Kind = "celebrate"
	KindIntegrity Kind = "integrity"
	KindError     Kind = "error"
)

// Message is one entry in the conversation.
type Message struct {
	Sender Sender
	Text   string
	// Correct is set on answer feedback.
	Correct *bool
	Kind    Kind
}

func botSay(text string) Message {
	return Message{Sender: SenderBot, Text: text, Kind: KindChat}
}

func feedback(text string, correct bool) Message {
	return Message{Sender: SenderBot, Text: text, Correct: &correct, Kind: KindChat}
}

// UserMessage wraps an utterance for display.
func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text, Kind: KindChat}
}
