package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/integrity"
	"github.com/abhisek/lexi/internal/router"
	"github.com/abhisek/lexi/internal/screen"
	"github.com/abhisek/lexi/internal/screens/chat"
	"github.com/abhisek/lexi/internal/session"
	"github.com/abhisek/lexi/internal/store"
	"github.com/abhisek/lexi/internal/ui/layout"
)

// noteBuffer bounds out-of-band messages waiting for the UI.
const noteBuffer = 32

// Options wires the TUI to its services.
type Options struct {
	Repo      store.ProgressRepo
	Evaluator session.Evaluator
	Catalog   *content.Catalog
	Logger    *slog.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel rooted at root.
func newAppModel(root screen.Screen) AppModel {
	return AppModel{
		router: router.New(root),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	// Focus reports drive the integrity monitor.
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the chat TUI and blocks until the learner quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	monitor := integrity.New(nil)
	notes := session.NewChanNotifier(noteBuffer)
	machine := session.NewMachine(session.Options{
		Repo:      opts.Repo,
		Evaluator: opts.Evaluator,
		Catalog:   opts.Catalog,
		Monitor:   monitor,
		Notifier:  notes,
		Logger:    opts.Logger,
	})

	root := chat.New(chat.Deps{
		Machine: machine,
		Notes:   notes.C(),
		Monitor: monitor,
		Repo:    opts.Repo,
		Catalog: opts.Catalog,
	})
	model := newAppModel(root)

	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, err := p.Run()

	// Nothing reads notes once the program exits; drain so that a save
	// failure reported during Close cannot block it.
	go func() {
		for range notes.C() {
		}
	}()
	model.router.CloseAll()
	machine.Close()
	notes.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
