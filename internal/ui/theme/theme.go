package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: warm and low-contrast on a dark background, which is
// easier on readers with visual stress than pure white on black.
var (
	Primary   = lipgloss.Color("#7C9CF5") // Soft Blue
	Secondary = lipgloss.Color("#5EC4B6") // Sea Green
	Accent    = lipgloss.Color("#F2B661") // Amber
	Success   = lipgloss.Color("#6CCB7E") // Green
	Error     = lipgloss.Color("#E9747F") // Coral
	Text      = lipgloss.Color("#F1EAD8") // Cream
	TextDim   = lipgloss.Color("#A7A29A") // Warm Grey
	BgDark    = lipgloss.Color("#1C1B22") // Charcoal
	BgCard    = lipgloss.Color("#2A2833") // Dark Plum
	Border    = lipgloss.Color("#45424F") // Grey
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Chat
var (
	BotBubble = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	UserBubble = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Banner = lipgloss.NewStyle().
		Foreground(BgDark).
		Background(Success).
		Bold(true).
		Padding(0, 3)
)
