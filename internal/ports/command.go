// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"fmt"
	"strings"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call as a shell-like command line.
func (c CommandCall) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// CommandRunner executes shell commands.
// A non-zero exit is reported through CommandResult, not as an error;
// errors are reserved for commands that could not be started or were
// interrupted.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}

// ExecutionError reports a command that ran but exited unsuccessfully.
type ExecutionError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
}

// Error returns the formatted error message.
func (e *ExecutionError) Error() string {
	call := CommandCall{Command: e.Command, Args: e.Args}
	msg := fmt.Sprintf("%s: exit status %d", call.String(), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + lastLine(stderr)
	}
	return msg
}

// RunChecked runs a command and converts a non-zero exit into an ExecutionError.
func RunChecked(ctx context.Context, runner CommandRunner, command string, args ...string) (CommandResult, error) {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		return result, fmt.Errorf("%s: %w", command, err)
	}
	if !result.Success() {
		return result, &ExecutionError{
			Command:  command,
			Args:     args,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return result, nil
}

// lastLine keeps error messages to the final line of multi-line stderr output.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
