package components

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/aistack/internal/tui/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(t *testing.T, cmd tea.Cmd) ConfirmResultMsg {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")
	msg, ok := cmd().(ConfirmResultMsg)
	require.True(t, ok)
	return msg
}

func TestNewConfirm(t *testing.T) {
	t.Parallel()

	confirm := NewConfirm("Install the stack?")

	assert.Equal(t, "Install the stack?", confirm.Message())
	assert.False(t, confirm.Focused(), "no is focused by default")
}

func TestConfirm_Navigation(t *testing.T) {
	t.Parallel()

	confirm := NewConfirm("Confirm?")

	confirm, _ = confirm.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.True(t, confirm.Focused())

	confirm, _ = confirm.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.False(t, confirm.Focused())

	confirm, _ = confirm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	assert.True(t, confirm.Focused())

	confirm, _ = confirm.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, confirm.Focused())
}

func TestConfirm_EnterUsesFocus(t *testing.T) {
	t.Parallel()

	confirm := NewConfirm("Proceed?")

	_, cmd := confirm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, result(t, cmd).Confirmed)

	confirm, _ = confirm.Update(tea.KeyMsg{Type: tea.KeyLeft})
	_, cmd = confirm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, result(t, cmd).Confirmed)
}

func TestConfirm_Shortcuts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want bool
	}{
		{"y", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}}, true},
		{"n", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}}, false},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, false},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, cmd := NewConfirm("Proceed?").Update(tt.msg)
			assert.Equal(t, tt.want, result(t, cmd).Confirmed)
		})
	}
}

func TestConfirm_IgnoresOtherKeys(t *testing.T) {
	t.Parallel()

	_, cmd := NewConfirm("Proceed?").Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	assert.Nil(t, cmd)
}

func TestConfirm_View(t *testing.T) {
	t.Parallel()

	confirm := NewConfirm("This will install Docker.").
		WithTitle("aistack").
		WithLabels("Install", "Cancel").
		WithStyles(ui.NewStyles(lipgloss.NewRenderer(io.Discard)))

	view := confirm.View()

	assert.Contains(t, view, "aistack")
	assert.Contains(t, view, "This will install Docker.")
	assert.Contains(t, view, "Install")
	assert.Contains(t, view, "Cancel")
	assert.Contains(t, view, "esc/q")
}

func TestConfirm_WindowSizeShrinksWidth(t *testing.T) {
	t.Parallel()

	confirm, _ := NewConfirm("Proceed?").Update(tea.WindowSizeMsg{Width: 30, Height: 10})

	assert.Equal(t, 26, confirm.width)
}
