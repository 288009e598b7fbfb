package chat

import "github.com/abhisek/lexi/internal/session"

// replyMsg carries the machine's answer to a submitted utterance.
type replyMsg struct {
	Messages []session.Message
	Err      error
}

// noteMsg is a message the machine produced on its own: a deferred
// announcement, an integrity warning or a save failure. OK is false once
// the channel is closed.
type noteMsg struct {
	Message session.Message
	OK      bool
}

// bannerExpiredMsg hides the celebration banner it was scheduled for.
type bannerExpiredMsg struct {
	Seq int
}
