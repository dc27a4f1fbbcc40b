// Package ollama runs the Ollama engine container and pulls models into it.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/docker"
)

// ContainerPort is the port Ollama listens on inside its container.
const ContainerPort = 11434

// ErrVersionTooOld is returned when the running engine is older than required.
var ErrVersionTooOld = errors.New("ollama version is below the required minimum")

// ErrNotReady is returned when the engine does not answer after start.
var ErrNotReady = errors.New("ollama did not become ready")

var versionPattern = regexp.MustCompile(`version is (\S+)`)

// ParseVersion extracts the version from "ollama --version" output.
func ParseVersion(out string) (string, bool) {
	matches := versionPattern.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return "", false
	}
	// The server version comes last when client and server differ.
	return matches[len(matches)-1][1], true
}

// Spec returns the container spec for the engine.
func Spec(cfg config.OllamaConfig) docker.ContainerSpec {
	return docker.ContainerSpec{
		Name:    cfg.Name,
		Image:   cfg.Image,
		Ports:   []string{strconv.Itoa(cfg.Port) + ":" + strconv.Itoa(ContainerPort)},
		Volumes: []string{cfg.DataDir + ":/root/.ollama"},
		Extra:   []string{"--gpus=all"},
	}
}

// ServerAction keeps a GPU-enabled Ollama container running at or above a
// minimum version.
type ServerAction struct {
	runner     ports.CommandRunner
	container  *docker.ContainerAction
	name       string
	minVersion string

	readyAttempts int
	readyDelay    time.Duration
}

// ServerOption configures a ServerAction.
type ServerOption func(*ServerAction)

// WithReadiness sets how often and how long to wait for the API after start.
func WithReadiness(attempts int, delay time.Duration) ServerOption {
	return func(a *ServerAction) {
		a.readyAttempts = attempts
		a.readyDelay = delay
	}
}

// NewServerAction creates a ServerAction.
func NewServerAction(runner ports.CommandRunner, cfg config.OllamaConfig, opts ...ServerOption) *ServerAction {
	a := &ServerAction{
		runner:        runner,
		container:     docker.NewContainerAction(runner, Spec(cfg)),
		name:          cfg.Name,
		minVersion:    cfg.MinVersion,
		readyAttempts: 30,
		readyDelay:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Version asks the running engine for its version.
func (a *ServerAction) Version(ctx context.Context) (string, error) {
	result, err := ports.RunChecked(ctx, a.runner, "docker", "exec", a.name, "ollama", "--version")
	if err != nil {
		return "", err
	}
	v, ok := ParseVersion(result.Stdout + "\n" + result.Stderr)
	if !ok {
		return "", fmt.Errorf("unrecognised ollama --version output %q", result.Stdout)
	}
	return v, nil
}

func (a *ServerAction) recentEnough(ctx context.Context) (bool, string, error) {
	if a.minVersion == "" {
		return true, "", nil
	}
	v, err := a.Version(ctx)
	if err != nil {
		return false, "", err
	}
	return config.VersionAtLeast(v, a.minVersion), v, nil
}

// Satisfied reports whether the container runs a recent enough engine.
func (a *ServerAction) Satisfied(ctx context.Context) (bool, error) {
	state, err := a.container.State(ctx)
	if err != nil || state != docker.StateRunning {
		return false, err
	}
	ok, _, err := a.recentEnough(ctx)
	return ok, err
}

// Apply starts the engine, replacing a container that runs an old version.
func (a *ServerAction) Apply(ctx context.Context) error {
	state, err := a.container.State(ctx)
	if err != nil {
		return err
	}

	if state == docker.StateRunning {
		ok, _, verr := a.recentEnough(ctx)
		if verr == nil && !ok {
			if err := a.container.Recreate(ctx); err != nil {
				return err
			}
		}
	}
	if err := a.container.Apply(ctx); err != nil {
		return err
	}
	if err := a.waitReady(ctx); err != nil {
		return err
	}

	ok, v, err := a.recentEnough(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: have %s, need %s", ErrVersionTooOld, v, a.minVersion)
	}
	return nil
}

// Undo removes the container; downloaded models stay in the data directory.
func (a *ServerAction) Undo(ctx context.Context) error {
	return a.container.Undo(ctx)
}

func (a *ServerAction) waitReady(ctx context.Context) error {
	var lastErr error
	for i := 0; i < max(a.readyAttempts, 1); i++ {
		if i > 0 && a.readyDelay > 0 {
			t := time.NewTimer(a.readyDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		_, err := ports.RunChecked(ctx, a.runner, "docker", "exec", a.name, "ollama", "list")
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %w", ErrNotReady, lastErr)
}
