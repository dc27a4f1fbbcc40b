// Package catalog assembles the ordered installation registry from the
// configuration and the providers.
package catalog

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/apt"
	"github.com/felixgeelhaar/aistack/internal/provider/docker"
	"github.com/felixgeelhaar/aistack/internal/provider/nvidia"
	"github.com/felixgeelhaar/aistack/internal/provider/ollama"
	"github.com/felixgeelhaar/aistack/internal/provider/shell"
	"github.com/felixgeelhaar/aistack/internal/provider/webui"
)

// Step names.
const (
	StepBasePackages     = "base:packages"
	StepNvidiaDriver     = "nvidia:driver"
	StepDockerEngine     = "docker:engine"
	StepContainerToolkit = "nvidia:container-toolkit"
	StepOllamaServer     = "ollama:server"
	StepOpenWebUI        = "webui:open-webui"
	StepLobeChat         = "webui:lobechat"
	StepShellAliases     = "shell:aliases"

	modelStepPrefix = "models:"
)

// Image pulls dominate service start-up time.
const serviceTimeout = 20 * time.Minute

// ModelStep returns the step name for a model.
func ModelStep(model string) string {
	return modelStepPrefix + model
}

// Build registers every step the configuration asks for, in install order.
func Build(cfg config.Config, runner ports.CommandRunner, fs ports.FileSystem, opts ...ollama.ServerOption) (*install.Registry, error) {
	steps := []install.Step{
		{
			Name:        StepBasePackages,
			Description: "Install base system packages",
			Phase:       install.PhaseBase,
			Action:      apt.NewPackagesAction(runner, apt.BasePackages...),
			Idempotent:  true,
			Required:    true,
		},
		{
			Name:        StepNvidiaDriver,
			Description: "Install the NVIDIA driver",
			Phase:       install.PhaseDriver,
			Action:      nvidia.NewDriverAction(runner),
			Idempotent:  true,
			Required:    true,
			FollowUp:    "Reboot if the NVIDIA driver was installed for the first time.",
		},
		{
			Name:        StepDockerEngine,
			Description: "Install and enable the Docker engine",
			Phase:       install.PhaseRuntime,
			Action:      docker.NewEngineAction(runner),
			Idempotent:  true,
			Required:    true,
		},
		{
			Name:        StepContainerToolkit,
			Description: "Install the NVIDIA container toolkit",
			Phase:       install.PhaseRuntime,
			Action:      nvidia.NewToolkitAction(runner, fs),
			Idempotent:  true,
			Required:    true,
		},
		{
			Name:        StepOllamaServer,
			Description: "Run the Ollama server container",
			Phase:       install.PhaseEngine,
			Action:      ollama.NewServerAction(runner, cfg.Ollama, opts...),
			Idempotent:  true,
			Required:    true,
			Timeout:     serviceTimeout,
			FollowUp:    fmt.Sprintf("Ollama API: %s", webui.URL(cfg.Ollama.Service)),
		},
	}

	if !cfg.Run.SkipModels {
		for _, model := range cfg.Models.Names {
			steps = append(steps, install.Step{
				Name:        ModelStep(model),
				Description: "Pull model " + model,
				Phase:       install.PhaseModels,
				Action:      ollama.NewModelAction(runner, cfg.Ollama.Name, model),
				Idempotent:  true,
				Timeout:     cfg.Models.Timeout,
				Retries:     cfg.Models.Retries,
			})
		}
	}

	steps = append(steps,
		install.Step{
			Name:        StepOpenWebUI,
			Description: "Run the Open WebUI container",
			Phase:       install.PhaseServices,
			Action:      webui.NewOpenWebUIAction(runner, cfg.OpenWebUI, cfg.Ollama),
			Idempotent:  true,
			Timeout:     serviceTimeout,
			FollowUp:    "Open WebUI: " + webui.URL(cfg.OpenWebUI),
		},
		install.Step{
			Name:        StepLobeChat,
			Description: "Run the LobeChat container",
			Phase:       install.PhaseServices,
			Action:      webui.NewLobeChatAction(runner, cfg.LobeChat, cfg.Ollama),
			Idempotent:  true,
			Timeout:     serviceTimeout,
			FollowUp:    "LobeChat: " + webui.URL(cfg.LobeChat),
		},
	)

	if len(cfg.Shell.Aliases) > 0 {
		steps = append(steps, install.Step{
			Name:        StepShellAliases,
			Description: "Add helper aliases to " + cfg.Shell.RCFile,
			Phase:       install.PhaseTools,
			Action:      shell.NewAliasesAction(fs, cfg.Shell.RCFile, cfg.Shell.Aliases),
			Idempotent:  true,
			FollowUp:    "Run `source " + cfg.Shell.RCFile + "` to load the aliases.",
		})
	}

	reg := install.NewRegistry()
	for _, s := range steps {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
