package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexi/internal/ui/theme"
)

// ChatInput wraps bubbles/textinput as the chat composer.
type ChatInput struct {
	Model    textinput.Model
	disabled bool
}

// NewChatInput creates a focused composer. charLimit <= 0 means unlimited.
func NewChatInput(placeholder string, charLimit int) ChatInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.Focus()
	return ChatInput{Model: ti}
}

// Init returns the initial command.
func (c ChatInput) Init() tea.Cmd {
	return c.Model.Focus()
}

// Update handles messages. Keys are ignored while disabled.
func (c ChatInput) Update(msg tea.Msg) (ChatInput, tea.Cmd) {
	if c.disabled {
		if _, ok := msg.(tea.KeyMsg); ok {
			return c, nil
		}
	}
	var cmd tea.Cmd
	c.Model, cmd = c.Model.Update(msg)
	return c, cmd
}

// View renders the composer inside a rounded box of the given width.
func (c ChatInput) View(width int) string {
	border := theme.Primary
	if c.disabled {
		border = theme.Border
	}
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(c.Model.View())
}

// SetWidth sets the editable width.
func (c *ChatInput) SetWidth(w int) {
	c.Model.SetWidth(max(w, 1))
}

// Value returns the current input value.
func (c ChatInput) Value() string {
	return c.Model.Value()
}

// Reset clears the input.
func (c *ChatInput) Reset() {
	c.Model.Reset()
}

// SetDisabled blocks typing while a reply is pending.
func (c *ChatInput) SetDisabled(d bool) {
	c.disabled = d
}

// Disabled reports whether typing is blocked.
func (c ChatInput) Disabled() bool {
	return c.disabled
}
