// Package components holds reusable bubbletea widgets.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/aistack/internal/tui/ui"
)

// ConfirmResultMsg is sent when the user confirms or cancels.
type ConfirmResultMsg struct {
	Confirmed bool
}

// Confirm is a yes/no confirmation dialog.
type Confirm struct {
	title    string
	message  string
	yesLabel string
	noLabel  string
	focused  bool // true = yes, false = no
	width    int
	keys     ui.KeyMap
	styles   ui.Styles
}

// NewConfirm creates a new confirmation dialog. No is focused so that an
// accidental enter does not start an installation.
func NewConfirm(message string) Confirm {
	return Confirm{
		message:  message,
		yesLabel: "Yes",
		noLabel:  "No",
		focused:  false,
		width:    60,
		keys:     ui.DefaultKeyMap(),
		styles:   ui.DefaultStyles(),
	}
}

// Message returns the confirmation message.
func (c Confirm) Message() string {
	return c.message
}

// Focused returns true if yes is focused, false if no is focused.
func (c Confirm) Focused() bool {
	return c.focused
}

// WithTitle sets a heading shown above the message.
func (c Confirm) WithTitle(title string) Confirm {
	c.title = title
	return c
}

// WithLabels sets the button labels.
func (c Confirm) WithLabels(yes, no string) Confirm {
	c.yesLabel = yes
	c.noLabel = no
	return c
}

// WithWidth sets the dialog width.
func (c Confirm) WithWidth(width int) Confirm {
	c.width = width
	return c
}

// WithStyles sets the styles.
func (c Confirm) WithStyles(styles ui.Styles) Confirm {
	c.styles = styles
	return c
}

// Init implements tea.Model.
func (c Confirm) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return c.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		if msg.Width > 4 && msg.Width-4 < c.width {
			c.width = msg.Width - 4
		}
	}
	return c, nil
}

func (c Confirm) handleKeyMsg(msg tea.KeyMsg) (Confirm, tea.Cmd) {
	switch {
	case c.keys.IsLeft(msg):
		c.focused = true
	case c.keys.IsRight(msg):
		c.focused = false
	case key.Matches(msg, c.keys.Toggle):
		c.focused = !c.focused
	case key.Matches(msg, c.keys.Select):
		return c, c.confirmCmd(c.focused)
	case key.Matches(msg, c.keys.Accept):
		return c, c.confirmCmd(true)
	case key.Matches(msg, c.keys.Reject), key.Matches(msg, c.keys.Cancel):
		return c, c.confirmCmd(false)
	}
	return c, nil
}

func (c Confirm) confirmCmd(confirmed bool) tea.Cmd {
	return func() tea.Msg {
		return ConfirmResultMsg{Confirmed: confirmed}
	}
}

// View renders the confirmation dialog.
func (c Confirm) View() string {
	yesStyle := c.styles.Button
	noStyle := c.styles.Button
	if c.focused {
		yesStyle = c.styles.ButtonActive
	} else {
		noStyle = c.styles.ButtonActive
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesStyle.Render(c.yesLabel), "  ", noStyle.Render(c.noLabel))
	buttonRow := lipgloss.NewStyle().Width(c.width).Align(lipgloss.Center).Render(buttons)

	var parts []string
	if c.title != "" {
		parts = append(parts, c.styles.Title.Render(c.title))
	}
	parts = append(parts, c.styles.Paragraph.Width(c.width).Render(c.message), "", buttonRow, "", c.help())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (c Confirm) help() string {
	var items []string
	for _, b := range c.keys.HelpBindings() {
		h := b.Help()
		items = append(items, c.styles.HelpKey.Render(h.Key)+" "+c.styles.Help.Render(h.Desc))
	}
	return strings.Join(items, c.styles.Help.Render(" • "))
}
