package progress

import (
	"fmt"
	"io"
	"strings"
)

const barWidth = 30

// Bar draws a fixed-width percentage bar.
func Bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Render writes a plain-text dashboard.
func Render(w io.Writer, r Report) error {
	var b strings.Builder
	sep := strings.Repeat("─", 60)

	fmt.Fprintf(&b, "%s's Progress\n%s\n", r.Name, sep)
	if r.InProgress() {
		desc := r.LevelDescription
		if desc == "" {
			desc = "Unknown"
		}
		fmt.Fprintf(&b, "Level:           %s (%s)\n", r.CurrentLevel, desc)
		fmt.Fprintf(&b, "Exercises Done:  %d/3\n", r.CompletedExercises)
		fmt.Fprintf(&b, "                 %s %3.0f%%\n", Bar(r.Percent, barWidth), r.Percent)
	} else {
		b.WriteString("No level in progress. Enter a severity score to start one.\n")
	}

	fmt.Fprintf(&b, "Progress Trend:  %s\n", r.Trend)
	fmt.Fprintf(&b, "Average Attempts per Correct Answer: %.1f\n", r.AvgAttempts)
	fmt.Fprintf(&b, "Answers:         %d correct of %d\n", r.CorrectAttempts, r.TotalAttempts)

	if len(r.Chart) > 0 {
		fmt.Fprintf(&b, "\nLevel Progress\n%s\n", sep)
		for _, p := range r.Chart {
			fmt.Fprintf(&b, "%-10s  %-7s  %s %d\n", p.Date, p.Level, strings.Repeat("▇", p.Value/10), p.Value)
		}
	}

	if len(r.Sessions) > 0 {
		fmt.Fprintf(&b, "\nSessions\n%s\n", sep)
		fmt.Fprintf(&b, "%-10s  %-7s  %s\n", "Date", "Level", "Completed")
		for _, s := range r.Sessions {
			fmt.Fprintf(&b, "%-10s  %-7s  %d/3\n", s.Date, s.Level, s.CompletedExercises)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
