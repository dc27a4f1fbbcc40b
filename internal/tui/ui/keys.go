package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap contains the key bindings for the installer dialogs.
type KeyMap struct {
	// Navigation
	Left     key.Binding
	Right    key.Binding
	VimLeft  key.Binding
	VimRight key.Binding
	Toggle   key.Binding

	// Selection
	Select key.Binding
	Accept key.Binding
	Reject key.Binding
	Cancel key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "right"),
		),
		VimLeft: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "left"),
		),
		VimRight: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "right"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "no"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc/q", "cancel"),
		),
	}
}

// IsLeft reports whether msg moves focus left.
func (k KeyMap) IsLeft(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Left) || key.Matches(msg, k.VimLeft)
}

// IsRight reports whether msg moves focus right.
func (k KeyMap) IsRight(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Right) || key.Matches(msg, k.VimRight)
}

// HelpBindings returns the bindings listed in a dialog footer.
func (k KeyMap) HelpBindings() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Toggle, k.Select, k.Cancel}
}
