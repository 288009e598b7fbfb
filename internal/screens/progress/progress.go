// Package progress is the live progress dashboard screen. It subscribes to
// the learner's record and redraws after every write.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexi/internal/content"
	report "github.com/abhisek/lexi/internal/progress"
	"github.com/abhisek/lexi/internal/screen"
	"github.com/abhisek/lexi/internal/store"
	"github.com/abhisek/lexi/internal/ui/components"
	"github.com/abhisek/lexi/internal/ui/layout"
	"github.com/abhisek/lexi/internal/ui/theme"
)

// recordMsg delivers a fresh copy of the learner's record.
type recordMsg struct {
	rec *store.ProgressRecord
	ok  bool
}

// watchStartedMsg hands the subscription channel to the screen.
type watchStartedMsg struct {
	ch <-chan *store.ProgressRecord
}

// watchFailedMsg reports that the subscription could not be opened.
type watchFailedMsg struct {
	err error
}

// Screen renders progress.Report for one learner.
type Screen struct {
	repo    store.ProgressRepo
	catalog *content.Catalog
	learner string
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	ch     <-chan *store.ProgressRecord

	report  *report.Report
	missing bool
	errMsg  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Closer = (*Screen)(nil)

// New creates the dashboard for learner.
func New(repo store.ProgressRepo, catalog *content.Catalog, learner string) *Screen {
	if catalog == nil {
		catalog = content.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Screen{
		repo:    repo,
		catalog: catalog,
		learner: learner,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Screen) Init() tea.Cmd {
	repo, ctx, learner := s.repo, s.ctx, s.learner
	return func() tea.Msg {
		ch, err := repo.Watch(ctx, learner)
		if err != nil {
			return watchFailedMsg{err: err}
		}
		return watchStartedMsg{ch: ch}
	}
}

// Close ends the subscription.
func (s *Screen) Close() {
	s.cancel()
}

func (s *Screen) Title() string {
	return "Progress"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back to chat"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case watchStartedMsg:
		s.ch = msg.ch
		return s, s.next()
	case watchFailedMsg:
		s.errMsg = msg.err.Error()
		return s, nil
	case recordMsg:
		if !msg.ok {
			return s, nil
		}
		if msg.rec == nil {
			s.missing = true
			s.report = nil
		} else {
			r := report.Build(msg.rec, s.catalog, s.now())
			s.report = &r
			s.missing = false
		}
		return s, s.next()
	}
	return s, nil
}

func (s *Screen) next() tea.Cmd {
	ch := s.ch
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		rec, ok := <-ch
		return recordMsg{rec: rec, ok: ok}
	}
}

func (s *Screen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return center(width, height, lipgloss.NewStyle().Foreground(theme.Error).Render("Could not load progress: "+s.errMsg))
	case s.missing:
		return center(width, height, theme.Hint.Render("No progress saved yet for "+s.learner+"."))
	case s.report == nil:
		return center(width, height, theme.Hint.Render("Loading progress..."))
	}

	r := s.report
	cw := min(width-4, 90)
	var sections []string

	sections = append(sections, theme.Title.Width(cw).Render(r.Name+"'s Progress"))

	var level strings.Builder
	if r.InProgress() {
		fmt.Fprintf(&level, "%s  %s\n", label("Level"), theme.Body.Render(r.CurrentLevel+"  "+r.LevelDescription))
		fmt.Fprintf(&level, "%s  %s\n", label("Exercises"), theme.Body.Render(fmt.Sprintf("%d/%d completed", r.CompletedExercises, content.ExercisesPerLevel)))
		level.WriteString(components.NewProgressBar("", r.Percent, cw-4).View())
	} else {
		level.WriteString(theme.Hint.Render("No level in progress. Enter a severity score in the chat to start one."))
	}
	sections = append(sections, theme.Card.Width(cw).Render(level.String()))

	stats := fmt.Sprintf("%s  %s\n%s  %s\n%s  %s",
		label("Trend"), trendStyle(r.Trend).Render(string(r.Trend)),
		label("Avg attempts"), theme.Body.Render(fmt.Sprintf("%.1f per correct answer", r.AvgAttempts)),
		label("Answers"), theme.Body.Render(fmt.Sprintf("%d correct of %d", r.CorrectAttempts, r.TotalAttempts)),
	)
	sections = append(sections, theme.Card.Width(cw).Render(stats))

	if len(r.Chart) > 0 {
		sections = append(sections, theme.Card.Width(cw).Render(renderChart(r.Chart, cw-6, !layout.IsCompactHeight(height))))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(sections, "\n"))
}

// renderChart lists the most recent chart points as horizontal bars. In
// compact mode only the last five are shown.
func renderChart(points []report.Point, width int, full bool) string {
	limit := 5
	if full {
		limit = 10
	}
	if len(points) > limit {
		points = points[len(points)-limit:]
	}

	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render("Level chart (higher is an easier level)"))
	barWidth := max(width-24, 10)
	for _, p := range points {
		fmt.Fprintf(&b, "\n%s %s %s %s",
			theme.Hint.Render(p.Date),
			lipgloss.NewStyle().Foreground(theme.Text).Width(7).Render(p.Level),
			components.Meter(p.Value, 100, barWidth, lipgloss.NewStyle().Foreground(theme.Primary)),
			theme.Hint.Render(fmt.Sprintf("%3d", p.Value)),
		)
	}
	return b.String()
}

func trendStyle(t report.Trend) lipgloss.Style {
	switch t {
	case report.TrendImprovement:
		return theme.Correct
	case report.TrendDeterioration:
		return theme.Incorrect
	}
	return theme.Body
}

func label(s string) string {
	return lipgloss.NewStyle().Foreground(theme.TextDim).Width(13).Render(s + ":")
}

func center(width, height int, s string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, s)
}
