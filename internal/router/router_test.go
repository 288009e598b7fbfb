package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lexi/internal/screen"
)

// fakeScreen counts lifecycle calls and the messages it receives.
type fakeScreen struct {
	title  string
	inits  int
	closed int
	seen   []tea.Msg
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}

func (s *fakeScreen) View(int, int) string { return "view:" + s.title }
func (s *fakeScreen) Title() string        { return s.title }
func (s *fakeScreen) Close()               { s.closed++ }

func TestPushShowsProgressOverChat(t *testing.T) {
	chat := &fakeScreen{title: "Chat"}
	r := New(chat)

	progress := &fakeScreen{title: "Progress"}
	r.Update(PushScreenMsg{Screen: progress})

	if r.Depth() != 2 || r.Active() != progress {
		t.Fatalf("depth = %d, active = %q", r.Depth(), r.Active().Title())
	}
	if progress.inits != 1 {
		t.Errorf("Init ran %d times", progress.inits)
	}
	if got := r.View(80, 20); got != "view:Progress" {
		t.Errorf("view = %q", got)
	}

	r.Update("key")
	if len(progress.seen) != 1 || len(chat.seen) != 0 {
		t.Errorf("messages reached the wrong screen: chat %v, progress %v", chat.seen, progress.seen)
	}
}

func TestPushSameTitleIgnored(t *testing.T) {
	r := New(&fakeScreen{title: "Chat"})
	first := &fakeScreen{title: "Progress"}
	r.Push(first)

	second := &fakeScreen{title: "Progress"}
	if cmd := r.Push(second); cmd != nil {
		t.Error("expected no command for a duplicate push")
	}
	if r.Depth() != 2 || r.Active() != first {
		t.Errorf("depth = %d", r.Depth())
	}
	if second.inits != 0 || second.closed != 1 {
		t.Errorf("duplicate: inits %d, closed %d", second.inits, second.closed)
	}
}

func TestPopClosesAndKeepsRoot(t *testing.T) {
	chat := &fakeScreen{title: "Chat"}
	r := New(chat)
	progress := &fakeScreen{title: "Progress"}
	r.Push(progress)

	r.Update(PopScreenMsg{})
	if progress.closed != 1 {
		t.Errorf("popped screen closed %d times", progress.closed)
	}
	if r.Active() != chat {
		t.Errorf("active = %q", r.Active().Title())
	}

	r.Pop()
	if r.Depth() != 1 || chat.closed != 0 {
		t.Errorf("root popped: depth %d, closed %d", r.Depth(), chat.closed)
	}
}

func TestCloseAll(t *testing.T) {
	chat := &fakeScreen{title: "Chat"}
	r := New(chat)
	progress := &fakeScreen{title: "Progress"}
	r.Push(progress)

	r.CloseAll()
	if chat.closed != 1 || progress.closed != 1 {
		t.Errorf("closed: chat %d, progress %d", chat.closed, progress.closed)
	}
}
