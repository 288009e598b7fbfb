// Package router keeps the stack of screens behind the TUI. The chat is
// always at the bottom; the progress dashboard is pushed over it.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lexi/internal/screen"
)

// PushScreenMsg asks the router to show Screen over the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg asks the router to return to the previous screen.
type PopScreenMsg struct{}

// Router is a stack of screens. Only the top one receives messages.
type Router struct {
	stack []screen.Screen
}

// New starts a stack with root at the bottom. root is never popped.
func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

// Push shows s and returns its Init command. Pushing a screen with the
// same title as the active one is ignored, so a repeated shortcut does not
// stack copies.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	if top := r.Active(); top != nil && top.Title() == s.Title() {
		closeScreen(s)
		return nil
	}
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop drops the top screen and releases it. The root stays.
func (r *Router) Pop() {
	if len(r.stack) <= 1 {
		return
	}
	top := r.stack[len(r.stack)-1]
	r.stack[len(r.stack)-1] = nil
	r.stack = r.stack[:len(r.stack)-1]
	closeScreen(top)
}

// CloseAll releases every screen, top first.
func (r *Router) CloseAll() {
	for i := len(r.stack) - 1; i >= 0; i-- {
		closeScreen(r.stack[i])
	}
}

// Active is the screen on top.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth is the number of screens on the stack.
func (r *Router) Depth() int {
	return len(r.stack)
}

// Update handles navigation messages and hands everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		r.Pop()
		return nil
	}

	active := r.Active()
	if active == nil {
		return nil
	}
	next, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

// View renders the active screen into a width x height area.
func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}

func closeScreen(s screen.Screen) {
	if c, ok := s.(screen.Closer); ok {
		c.Close()
	}
}
