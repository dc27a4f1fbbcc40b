package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/validation"
)

// State is the lifecycle state of a named container.
type State string

// State constants.
const (
	StateAbsent  State = "absent"
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// ContainerSpec describes a long-running container.
type ContainerSpec struct {
	Name    string
	Image   string
	Ports   []string // host:container
	Volumes []string // source:target
	Env     []string // KEY=VALUE
	// Extra holds additional "docker run" flags such as --gpus=all.
	Extra []string
}

// RunArgs returns the "docker run" arguments for the spec.
func (s ContainerSpec) RunArgs() []string {
	args := []string{"run", "-d", "--name", s.Name, "--restart", "unless-stopped"}
	for _, p := range s.Ports {
		args = append(args, "-p", p)
	}
	for _, v := range s.Volumes {
		args = append(args, "-v", v)
	}
	for _, e := range s.Env {
		args = append(args, "-e", e)
	}
	args = append(args, s.Extra...)
	return append(args, s.Image)
}

func (s ContainerSpec) validate() error {
	if err := validation.ValidateContainerName(s.Name); err != nil {
		return fmt.Errorf("container %q: %w", s.Name, err)
	}
	if err := validation.ValidateImageRef(s.Image); err != nil {
		return fmt.Errorf("container %s: %w", s.Name, err)
	}
	for _, v := range s.Volumes {
		source, _, _ := strings.Cut(v, ":")
		if err := validation.ValidatePath(source); err != nil {
			return fmt.Errorf("container %s volume: %w", s.Name, err)
		}
	}
	return nil
}

// ContainerAction keeps one container running. It is idempotent: a running
// container is left alone and a stopped one is started.
type ContainerAction struct {
	runner ports.CommandRunner
	spec   ContainerSpec
}

// NewContainerAction creates a ContainerAction.
func NewContainerAction(runner ports.CommandRunner, spec ContainerSpec) *ContainerAction {
	return &ContainerAction{runner: runner, spec: spec}
}

// Spec returns the container spec.
func (a *ContainerAction) Spec() ContainerSpec {
	return a.spec
}

// State inspects the container.
func (a *ContainerAction) State(ctx context.Context) (State, error) {
	result, err := a.runner.Run(ctx, "docker", "inspect", "-f", "{{.State.Running}}", a.spec.Name)
	if err != nil {
		return StateAbsent, err
	}
	if !result.Success() {
		return StateAbsent, nil
	}
	if strings.TrimSpace(result.Stdout) == "true" {
		return StateRunning, nil
	}
	return StateStopped, nil
}

// Satisfied reports whether the container is running.
func (a *ContainerAction) Satisfied(ctx context.Context) (bool, error) {
	state, err := a.State(ctx)
	return state == StateRunning, err
}

// Apply starts the container, creating it when absent.
func (a *ContainerAction) Apply(ctx context.Context) error {
	if err := a.spec.validate(); err != nil {
		return err
	}

	state, err := a.State(ctx)
	if err != nil {
		return err
	}
	switch state {
	case StateRunning:
		return nil
	case StateStopped:
		_, err := ports.RunChecked(ctx, a.runner, "docker", "start", a.spec.Name)
		return err
	}
	return a.create(ctx)
}

// Recreate removes the container and creates it from a freshly pulled image.
func (a *ContainerAction) Recreate(ctx context.Context) error {
	if err := a.spec.validate(); err != nil {
		return err
	}
	if err := a.Undo(ctx); err != nil {
		return err
	}
	return a.create(ctx)
}

func (a *ContainerAction) create(ctx context.Context) error {
	if _, err := ports.RunChecked(ctx, a.runner, "docker", "pull", a.spec.Image); err != nil {
		return err
	}
	_, err := ports.RunChecked(ctx, a.runner, "docker", a.spec.RunArgs()...)
	return err
}

// Undo removes the container. Volumes are kept so data survives a reinstall.
func (a *ContainerAction) Undo(ctx context.Context) error {
	result, err := a.runner.Run(ctx, "docker", "rm", "-f", a.spec.Name)
	if err != nil {
		return fmt.Errorf("docker: %w", err)
	}
	if !result.Success() && !strings.Contains(result.Stderr, "No such container") {
		return &ports.ExecutionError{
			Command:  "docker",
			Args:     []string{"rm", "-f", a.spec.Name},
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}
