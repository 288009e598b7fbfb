// Package layout draws the frame around every screen: a one-line header
// with the app name, screen title and learner status, and a footer of key
// hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexi/internal/ui/theme"
)

// The chat stays usable in a small terminal, so the minimum is well below
// the usual 80x24.
const (
	MinWidth  = 60
	MinHeight = 16

	HeaderHeight = 3
	FooterHeight = 3

	// Content areas shorter than this get condensed views.
	compactContentHeight = 22
)

// KeyHint is one "Key Description" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsCompactHeight reports whether a content area of the given height
// should use condensed views.
func IsCompactHeight(contentHeight int) bool {
	return contentHeight < compactContentHeight
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the learner to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Text).
		Render(fmt.Sprintf(
			"This window is a little small.\n\nMake it at least %d x %d to keep chatting.\n(now %d x %d)",
			MinWidth, MinHeight, width, height,
		))
}

var bar = lipgloss.NewStyle().
	Background(theme.BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Border).
	Padding(0, 1)

// RenderHeader draws the header. The title is centred; status sits on the
// right and is cut short before the title is.
func RenderHeader(title, status string, width int) string {
	inner := max(width-bar.GetHorizontalFrameSize(), 0)

	brand := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("Lexi")
	mid := lipgloss.NewStyle().Foreground(theme.Text).Render(title)

	// Centre the title on the whole bar, then slide it left if the status
	// needs the room.
	leftGap := max((inner-lipgloss.Width(mid))/2-lipgloss.Width(brand), 1)
	room := inner - lipgloss.Width(brand) - leftGap - lipgloss.Width(mid) - 1
	if over := lipgloss.Width(status) - room; over > 0 {
		leftGap = max(leftGap-over, 1)
		room = inner - lipgloss.Width(brand) - leftGap - lipgloss.Width(mid) - 1
	}

	right := ""
	if status != "" && room > 3 {
		right = lipgloss.NewStyle().Foreground(theme.Accent).MaxWidth(room).Render(status)
	}
	rightGap := max(inner-lipgloss.Width(brand)-leftGap-lipgloss.Width(mid)-lipgloss.Width(right), 1)

	line := brand + strings.Repeat(" ", leftGap) + mid + strings.Repeat(" ", rightGap) + right
	return bar.Width(width).Render(line)
}

// RenderFooter draws the key hints, dropping trailing hints that do not fit.
func RenderFooter(hints []KeyHint, width int) string {
	inner := max(width-bar.GetHorizontalFrameSize(), 0)
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var line string
	for _, h := range hints {
		part := keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
		next := part
		if line != "" {
			next = line + "   " + part
		}
		if lipgloss.Width(next) > inner {
			break
		}
		line = next
	}
	return bar.Width(width).Render(line)
}

// RenderFrame stacks header, content and footer, padding the content to
// fill the space between them.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
