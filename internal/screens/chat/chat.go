// Package chat is the tutoring conversation screen: a scrolling transcript
// above a single-line composer, driven by a session.Machine.
package chat

import (
	"context"
	"strings"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/integrity"
	"github.com/abhisek/lexi/internal/router"
	"github.com/abhisek/lexi/internal/screen"
	progressscreen "github.com/abhisek/lexi/internal/screens/progress"
	"github.com/abhisek/lexi/internal/session"
	"github.com/abhisek/lexi/internal/store"
	"github.com/abhisek/lexi/internal/ui/components"
	"github.com/abhisek/lexi/internal/ui/layout"
)

const (
	bannerLifetime = 3 * time.Second
	composerLimit  = 2000
)

// Machine is the part of session.Machine the screen drives.
type Machine interface {
	Greeting() session.Message
	Submit(ctx context.Context, utterance string) ([]session.Message, error)
	State() session.State
}

// Deps are the collaborators of the chat screen. Notes carries messages the
// machine produces between submissions; Monitor receives focus losses.
type Deps struct {
	Machine Machine
	Notes   <-chan session.Message
	Monitor *integrity.Monitor
	Repo    store.ProgressRepo
	Catalog *content.Catalog
}

// Screen implements screen.Screen for the conversation.
type Screen struct {
	deps Deps

	input     components.ChatInput
	viewport  viewport.Model
	log       []session.Message
	rendered  int // len(log) at the last viewport refresh
	lastWidth int
	banner    string
	bannerSeq int
	busy      bool
	errMsg    string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates the chat screen.
func New(d Deps) *Screen {
	if d.Catalog == nil {
		d.Catalog = content.Default()
	}
	return &Screen{
		deps:     d,
		input:    components.NewChatInput("Type a message and press Enter...", composerLimit),
		viewport: viewport.New(),
	}
}

func (s *Screen) Init() tea.Cmd {
	s.log = append(s.log, s.deps.Machine.Greeting())
	return tea.Batch(s.input.Init(), s.listen())
}

func (s *Screen) Title() string {
	return "Reading Coach"
}

func (s *Screen) Status() string {
	st := s.deps.Machine.State()
	if st.Learner == "" {
		return ""
	}
	if st.ActiveLevel == nil {
		return st.Learner
	}
	return st.Learner + " · Level " + st.ActiveLevel.Range.String()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
	}
	if s.deps.Machine.State().Learner != "" && s.deps.Repo != nil {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+P", Description: "Progress"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		return s.handleReply(msg)

	case noteMsg:
		if !msg.OK {
			return s, nil
		}
		return s, tea.Batch(s.add(msg.Message), s.listen())

	case bannerExpiredMsg:
		if msg.Seq == s.bannerSeq {
			s.banner = ""
		}
		return s, nil

	case tea.BlurMsg:
		if s.deps.Monitor != nil {
			s.deps.Monitor.RecordFocusLoss()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return s, s.submit()
	case "pgup":
		s.viewport.PageUp()
		return s, nil
	case "pgdown":
		s.viewport.PageDown()
		return s, nil
	case "ctrl+p":
		learner := s.deps.Machine.State().Learner
		if learner == "" || s.deps.Repo == nil {
			return s, nil
		}
		scr := progressscreen.New(s.deps.Repo, s.deps.Catalog, learner)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submit sends the composer text to the machine. The call runs as a
// command because answer evaluation may wait on the network.
func (s *Screen) submit() tea.Cmd {
	if s.busy || s.errMsg != "" {
		return nil
	}
	text := s.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.input.Reset()
	s.log = append(s.log, session.UserMessage(strings.TrimSpace(text)))
	s.busy = true
	s.input.SetDisabled(true)

	m := s.deps.Machine
	return func() tea.Msg {
		msgs, err := m.Submit(context.Background(), text)
		return replyMsg{Messages: msgs, Err: err}
	}
}

func (s *Screen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	s.input.SetDisabled(false)
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	var cmds []tea.Cmd
	for _, m := range msg.Messages {
		cmds = append(cmds, s.add(m))
	}
	return s, tea.Batch(cmds...)
}

// add appends m to the transcript, or raises the banner for a celebration.
func (s *Screen) add(m session.Message) tea.Cmd {
	if m.Kind == session.KindCelebrate {
		s.banner = m.Text
		s.bannerSeq++
		seq := s.bannerSeq
		return tea.Tick(bannerLifetime, func(time.Time) tea.Msg {
			return bannerExpiredMsg{Seq: seq}
		})
	}
	s.log = append(s.log, m)
	return nil
}

// listen waits for the next out-of-band message.
func (s *Screen) listen() tea.Cmd {
	ch := s.deps.Notes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		m, ok := <-ch
		return noteMsg{Message: m, OK: ok}
	}
}
