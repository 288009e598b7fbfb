// Package screen defines what the router needs from a TUI screen, plus the
// optional extras the frame asks for.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lexi/internal/ui/layout"
)

// Screen is one full-window view: the chat or the progress dashboard.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the area between header and footer.
	View(width, height int) string

	// Title is shown in the middle of the header.
	Title() string
}

// KeyHintProvider replaces the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider fills the right side of the header, e.g. "Ana · Level 21-40".
type StatusProvider interface {
	Status() string
}

// Closer releases what a screen holds, such as a progress subscription.
// The router calls it when the screen leaves the stack.
type Closer interface {
	Close()
}
