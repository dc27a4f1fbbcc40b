// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

// RealRunner executes actual shell commands.
type RealRunner struct {
	mu         sync.Mutex
	transcript io.Writer
	env        []string
}

// RunnerOption configures a RealRunner.
type RunnerOption func(*RealRunner)

// WithTranscript copies every command line and its output to w.
func WithTranscript(w io.Writer) RunnerOption {
	return func(r *RealRunner) {
		r.transcript = w
	}
}

// WithEnv appends KEY=VALUE pairs to the environment of every command.
func WithEnv(env ...string) RunnerOption {
	return func(r *RealRunner) {
		r.env = append(r.env, env...)
	}
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner(opts ...RunnerOption) *RealRunner {
	r := &RealRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetTranscript replaces the transcript writer. Passing nil disables it.
func (r *RealRunner) SetTranscript(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = w
}

// Run executes a command and returns the result.
// Cancellation or an expired deadline on ctx kills the process and is
// reported as an error wrapping ctx.Err().
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		result.ExitCode = -1
		r.record(command, args, result, time.Since(start))
		return result, fmt.Errorf("command interrupted: %w", ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.record(command, args, result, time.Since(start))
			return result, nil
		}
		return result, err
	}

	r.record(command, args, result, time.Since(start))
	return result, nil
}

// record appends the command and its output to the transcript, if any.
func (r *RealRunner) record(command string, args []string, result ports.CommandResult, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transcript == nil {
		return
	}

	call := ports.CommandCall{Command: command, Args: args}
	_, _ = fmt.Fprintf(r.transcript, "$ %s (exit %d, %s)\n", call.String(), result.ExitCode, elapsed.Round(time.Millisecond))
	writeIndented(r.transcript, result.Stdout)
	writeIndented(r.transcript, result.Stderr)
}

func writeIndented(w io.Writer, out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}
	for _, line := range strings.Split(out, "\n") {
		_, _ = fmt.Fprintf(w, "  | %s\n", line)
	}
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
