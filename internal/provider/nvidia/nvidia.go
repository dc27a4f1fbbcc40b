// Package nvidia installs the GPU driver and the container toolkit that
// exposes the GPU to containers.
package nvidia

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/apt"
	"github.com/felixgeelhaar/aistack/internal/provider/commandutil"
	"github.com/felixgeelhaar/aistack/internal/validation"
)

// Container toolkit repository locations.
const (
	ToolkitKeyURL   = "https://nvidia.github.io/libnvidia-container/gpgkey"
	ToolkitListURL  = "https://nvidia.github.io/libnvidia-container/stable/deb/nvidia-container-toolkit.list"
	ToolkitKeyring  = "/usr/share/keyrings/nvidia-container-toolkit-keyring.gpg"
	ToolkitListPath = "/etc/apt/sources.list.d/nvidia-container-toolkit.list"
	ToolkitPackage  = "nvidia-container-toolkit"
)

// DriverAction installs the recommended proprietary driver.
type DriverAction struct {
	runner ports.CommandRunner
}

// NewDriverAction creates a DriverAction.
func NewDriverAction(runner ports.CommandRunner) *DriverAction {
	return &DriverAction{runner: runner}
}

// Satisfied reports whether nvidia-smi can talk to a loaded driver.
func (a *DriverAction) Satisfied(ctx context.Context) (bool, error) {
	return commandutil.Succeeds(ctx, a.runner, "nvidia-smi")
}

// Apply runs ubuntu-drivers. The new driver is only active after a reboot.
func (a *DriverAction) Apply(ctx context.Context) error {
	return commandutil.RunAll(ctx, a.runner,
		[]string{"ubuntu-drivers", "autoinstall"},
	)
}

// ToolkitAction adds NVIDIA's apt repository, installs the container toolkit
// and registers the nvidia runtime with Docker.
type ToolkitAction struct {
	runner  ports.CommandRunner
	fs      ports.FileSystem
	keyURL  string
	listURL string
}

// NewToolkitAction creates a ToolkitAction.
func NewToolkitAction(runner ports.CommandRunner, fs ports.FileSystem) *ToolkitAction {
	return &ToolkitAction{runner: runner, fs: fs, keyURL: ToolkitKeyURL, listURL: ToolkitListURL}
}

// Satisfied reports whether the toolkit package is installed.
func (a *ToolkitAction) Satisfied(ctx context.Context) (bool, error) {
	return apt.Installed(ctx, a.runner, ToolkitPackage)
}

// Apply installs and configures the toolkit.
func (a *ToolkitAction) Apply(ctx context.Context) error {
	for _, u := range []string{a.keyURL, a.listURL} {
		if err := validation.ValidateURL(u); err != nil {
			return err
		}
	}

	tmpKey := ToolkitKeyring + ".download"
	if err := commandutil.RunAll(ctx, a.runner,
		[]string{"curl", "-fsSL", "-o", tmpKey, a.keyURL},
		[]string{"gpg", "--batch", "--yes", "--dearmor", "-o", ToolkitKeyring, tmpKey},
	); err != nil {
		return err
	}
	if err := a.fs.Remove(tmpKey); err != nil {
		return fmt.Errorf("failed to remove %s: %w", tmpKey, err)
	}

	list, err := ports.RunChecked(ctx, a.runner, "curl", "-fsSL", a.listURL)
	if err != nil {
		return err
	}
	if err := a.fs.WriteFile(ToolkitListPath, []byte(SignedList(list.Stdout, ToolkitKeyring)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ToolkitListPath, err)
	}

	if err := apt.Install(ctx, a.runner, ToolkitPackage); err != nil {
		return err
	}
	return commandutil.RunAll(ctx, a.runner,
		[]string{"nvidia-ctk", "runtime", "configure", "--runtime=docker"},
		[]string{"systemctl", "restart", "docker"},
	)
}

// Undo removes the repository list so apt stops consulting it.
func (a *ToolkitAction) Undo(_ context.Context) error {
	if err := a.fs.Remove(ToolkitListPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SignedList pins every "deb https://" line of an apt list to keyring.
func SignedList(list, keyring string) string {
	lines := strings.Split(list, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "deb https://") {
			lines[i] = strings.Replace(line, "deb https://", fmt.Sprintf("deb [signed-by=%s] https://", keyring), 1)
		}
	}
	return strings.Join(lines, "\n")
}
