package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexi/internal/ui/theme"
)

// ProgressBar displays a horizontal bar for a 0-100 percentage.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int
	Color   lipgloss.Style
}

// NewProgressBar creates a progress bar filled in the secondary color.
func NewProgressBar(label string, percent float64, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Percent: percent,
		Width:   width,
		Color:   lipgloss.NewStyle().Background(theme.Secondary),
	}
}

// View renders the bar followed by the percentage.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	const percentWidth = 6 // "  100%"
	barWidth := max(p.Width-lipgloss.Width(result)-percentWidth, 4)

	filled := int(float64(barWidth) * p.Percent / 100)
	filled = min(max(filled, 0), barWidth)

	result += p.Color.Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	return result + lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %3.0f%%", p.Percent))
}

// Meter renders a compact bar of value out of maxValue using block glyphs,
// for chart rows.
func Meter(value, maxValue, width int, color lipgloss.Style) string {
	if maxValue <= 0 || width <= 0 {
		return ""
	}
	n := min(max(value*width/maxValue, 0), width)
	return color.Render(strings.Repeat("█", n)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", width-n))
}
