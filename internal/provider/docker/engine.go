// Package docker installs the container engine and manages the containers
// that make up the stack.
package docker

import (
	"context"

	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/apt"
	"github.com/felixgeelhaar/aistack/internal/provider/commandutil"
)

// EnginePackages are the apt packages providing the engine.
var EnginePackages = []string{"docker.io"}

// EngineAction installs Docker from the Ubuntu archive and starts the daemon.
type EngineAction struct {
	runner ports.CommandRunner
}

// NewEngineAction creates an EngineAction.
func NewEngineAction(runner ports.CommandRunner) *EngineAction {
	return &EngineAction{runner: runner}
}

// Satisfied reports whether a reachable daemon answers "docker version".
func (a *EngineAction) Satisfied(ctx context.Context) (bool, error) {
	return commandutil.Succeeds(ctx, a.runner, "docker", "version", "--format", "{{.Server.Version}}")
}

// Apply installs the engine and enables the service.
func (a *EngineAction) Apply(ctx context.Context) error {
	if err := apt.Install(ctx, a.runner, EnginePackages...); err != nil {
		return err
	}
	_, err := ports.RunChecked(ctx, a.runner, "systemctl", "enable", "--now", "docker")
	return err
}
