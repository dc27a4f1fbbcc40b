// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Results registered with AddSequence are consumed in order; the last one
// repeats once the sequence is exhausted.
type CommandRunner struct {
	mu       sync.RWMutex
	results  map[string][]ports.CommandResult
	errors   map[string]error
	fallback *ports.CommandResult
	hook     func(call ports.CommandCall)
	calls    []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string][]ports.CommandResult),
		errors:  make(map[string]error),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.AddSequence(command, args, result)
}

// AddSequence registers successive results for repeated calls of one command.
func (m *CommandRunner) AddSequence(command string, args []string, results ...ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(command, args)
	m.results[key] = append([]ports.CommandResult(nil), results...)
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(command, args)
	m.errors[key] = err
}

// SetFallback sets the result returned for unregistered commands.
// Without a fallback, unregistered commands return an error.
func (m *CommandRunner) SetFallback(result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &result
}

// OnRun registers a function called for every invocation before the result is chosen.
func (m *CommandRunner) OnRun(fn func(call ports.CommandCall)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Run executes a mock command.
func (m *CommandRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	call := ports.CommandCall{
		Command: command,
		Args:    append([]string(nil), args...),
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err := ctx.Err(); err != nil {
		return ports.CommandResult{ExitCode: -1}, fmt.Errorf("command interrupted: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(command, args)

	// Check for registered error first
	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}

	if seq, ok := m.results[key]; ok && len(seq) > 0 {
		result := seq[0]
		if len(seq) > 1 {
			m.results[key] = seq[1:]
		}
		return result, nil
	}

	if m.fallback != nil {
		return *m.fallback, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent data races
	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallStrings returns the recorded invocations as command lines.
func (m *CommandRunner) CallStrings() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Ran reports whether the exact command line was invoked.
func (m *CommandRunner) Ran(commandLine string) bool {
	for _, s := range m.CallStrings() {
		if s == commandLine {
			return true
		}
	}
	return false
}

// CountPrefix returns how many invocations start with prefix.
func (m *CommandRunner) CountPrefix(prefix string) int {
	n := 0
	for _, s := range m.CallStrings() {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string][]ports.CommandResult)
	m.errors = make(map[string]error)
	m.fallback = nil
	m.hook = nil
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
