// Package tui provides the interactive confirmation used before the
// installer mutates the system.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/tui/components"
	"github.com/mattn/go-isatty"
)

// confirmModel wraps the Confirm component as a full program.
type confirmModel struct {
	confirm   components.Confirm
	answered  bool
	confirmed bool
}

func newConfirmModel(prompt string) confirmModel {
	return confirmModel{
		confirm: components.NewConfirm(prompt).WithTitle("aistack").WithLabels("Proceed", "Cancel"),
	}
}

func (m confirmModel) Init() tea.Cmd {
	return m.confirm.Init()
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(components.ConfirmResultMsg); ok {
		m.answered = true
		m.confirmed = res.Confirmed
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.confirm, cmd = m.confirm.Update(msg)
	return m, cmd
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	return m.confirm.View() + "\n"
}

// TeaConfirmer asks with a full-screen bubbletea dialog.
type TeaConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewTeaConfirmer creates a TeaConfirmer on the given terminal streams.
func NewTeaConfirmer(in io.Reader, out io.Writer) *TeaConfirmer {
	return &TeaConfirmer{in: in, out: out}
}

// Confirm runs the dialog until the operator answers.
func (c *TeaConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(prompt),
		tea.WithContext(ctx),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
	)
	finalModel, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("confirmation dialog failed: %w", err)
	}

	m, ok := finalModel.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type")
	}
	return m.answered && m.confirmed, nil
}

// LineConfirmer asks with a plain "[y/N]" prompt for non-interactive
// terminals and pipes.
type LineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineConfirmer creates a LineConfirmer.
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints the prompt and reads one line. Anything other than
// "y" or "yes" declines, including end of input.
func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(c.out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(c.out)
	}

	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}

// NewConfirmer picks the dialog when both streams are terminals and the
// line prompt otherwise.
func NewConfirmer(in, out *os.File) ports.Confirmer {
	if isTerminal(in) && isTerminal(out) {
		return NewTeaConfirmer(in, out)
	}
	return NewLineConfirmer(in, out)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var (
	_ ports.Confirmer = (*TeaConfirmer)(nil)
	_ ports.Confirmer = (*LineConfirmer)(nil)
)
