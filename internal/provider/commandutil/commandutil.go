// Package commandutil holds helpers shared by the install providers.
package commandutil

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Succeeds runs a probe command and reports whether it exited 0.
// A missing executable counts as "no" rather than an error.
func Succeeds(ctx context.Context, runner ports.CommandRunner, command string, args ...string) (bool, error) {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		if IsCommandNotFound(err) && ctx.Err() == nil {
			return false, nil
		}
		return false, err
	}
	return result.Success(), nil
}

// RunAll runs each command line in order and stops at the first failure.
func RunAll(ctx context.Context, runner ports.CommandRunner, cmds ...[]string) error {
	for _, c := range cmds {
		if len(c) == 0 {
			continue
		}
		if _, err := ports.RunChecked(ctx, runner, c[0], c[1:]...); err != nil {
			return err
		}
	}
	return nil
}
