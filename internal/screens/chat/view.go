package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexi/internal/session"
	"github.com/abhisek/lexi/internal/ui/theme"
)

const composerHeight = 3

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, height, s.errMsg)
	}

	bannerHeight := 0
	if s.banner != "" {
		bannerHeight = 1
	}
	vpHeight := max(height-composerHeight-bannerHeight-1, 1)
	s.syncViewport(width-2, vpHeight)

	var b strings.Builder
	b.WriteString(s.viewport.View())
	b.WriteString("\n")
	if s.banner != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Banner.Render("★ "+s.banner+" ★")))
		b.WriteString("\n")
	}
	s.input.SetWidth(width - 8)
	b.WriteString(s.input.View(width - 2))
	return b.String()
}

// syncViewport re-renders the transcript when it grew or the width
// changed, and keeps the newest message in view while the learner is not
// scrolled back.
func (s *Screen) syncViewport(width, height int) {
	follow := s.viewport.AtBottom() || s.rendered == 0
	s.viewport.SetHeight(height)
	if len(s.log) == s.rendered && width == s.lastWidth {
		return
	}
	s.viewport.SetWidth(width)
	s.viewport.SetContent(renderTranscript(s.log, width))
	s.rendered = len(s.log)
	s.lastWidth = width
	if follow {
		s.viewport.GotoBottom()
	}
}

func renderTranscript(log []session.Message, width int) string {
	parts := make([]string, 0, len(log))
	for _, m := range log {
		parts = append(parts, renderMessage(m, width))
	}
	return strings.Join(parts, "\n")
}

// renderMessage draws one chat bubble: bot on the left, learner on the
// right, warnings and errors as plain colored lines.
func renderMessage(m session.Message, width int) string {
	bubbleWidth := max(width*3/4, 20)

	switch m.Kind {
	case session.KindIntegrity:
		return theme.Warning.Width(width).Render("⚠ " + m.Text)
	case session.KindError:
		return theme.Incorrect.Width(width).Render("✗ " + m.Text)
	}

	if m.Sender == session.SenderUser {
		bubble := theme.UserBubble.Width(min(lipgloss.Width(m.Text)+4, bubbleWidth)).Render(m.Text)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}

	text := m.Text
	if m.Correct != nil {
		if *m.Correct {
			text = theme.Correct.Render("✓") + " " + text
		} else {
			text = theme.Incorrect.Render("✗") + " " + text
		}
	}
	return theme.BotBubble.Width(min(longestLine(text)+4, bubbleWidth)).Render(text)
}

func longestLine(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		n = max(n, lipgloss.Width(line))
	}
	return n
}

func renderError(width, height int, msg string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Error).Render("This chat has ended: "+msg+"\n\nPress Ctrl+C to quit."))
}
