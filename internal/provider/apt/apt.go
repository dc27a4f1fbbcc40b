// Package apt installs Debian packages.
package apt

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/validation"
)

// BasePackages are the prerequisites every later step relies on.
var BasePackages = []string{"curl", "ca-certificates", "gnupg", "git", "pciutils"}

// Installed reports whether every package is installed according to dpkg.
func Installed(ctx context.Context, runner ports.CommandRunner, packages ...string) (bool, error) {
	if len(packages) == 0 {
		return true, nil
	}
	args := append([]string{"-W", "-f=${Package}\t${db:Status-Status}\n"}, packages...)
	result, err := runner.Run(ctx, "dpkg-query", args...)
	if err != nil {
		return false, err
	}
	// dpkg-query exits 1 when any package is unknown.
	if !result.Success() {
		return false, nil
	}

	status := make(map[string]string, len(packages))
	for _, line := range strings.Split(result.Stdout, "\n") {
		name, state, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if ok {
			// Multi-arch packages are reported as name:arch.
			name, _, _ = strings.Cut(name, ":")
			status[name] = state
		}
	}
	for _, p := range packages {
		if status[p] != "installed" {
			return false, nil
		}
	}
	return true, nil
}

// Install refreshes the package index and installs packages non-interactively.
func Install(ctx context.Context, runner ports.CommandRunner, packages ...string) error {
	for _, p := range packages {
		if err := validation.ValidatePackageName(p); err != nil {
			return fmt.Errorf("invalid package name: %w", err)
		}
	}
	if _, err := ports.RunChecked(ctx, runner, "apt-get", "update"); err != nil {
		return err
	}
	args := append([]string{"install", "-y", "--no-install-recommends"}, packages...)
	_, err := ports.RunChecked(ctx, runner, "apt-get", args...)
	return err
}

// PackagesAction installs a fixed set of packages.
type PackagesAction struct {
	runner   ports.CommandRunner
	packages []string
}

// NewPackagesAction creates a PackagesAction.
func NewPackagesAction(runner ports.CommandRunner, packages ...string) *PackagesAction {
	return &PackagesAction{runner: runner, packages: append([]string(nil), packages...)}
}

// Packages returns the package names.
func (a *PackagesAction) Packages() []string {
	return append([]string(nil), a.packages...)
}

// Satisfied reports whether all packages are already installed.
func (a *PackagesAction) Satisfied(ctx context.Context) (bool, error) {
	return Installed(ctx, a.runner, a.packages...)
}

// Apply installs the packages.
func (a *PackagesAction) Apply(ctx context.Context) error {
	return Install(ctx, a.runner, a.packages...)
}
