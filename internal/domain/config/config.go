// Package config holds the installer configuration: defaults, file loading,
// CLI overrides and validation.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Default values.
const (
	DefaultInstallDir       = "~/local-ai"
	DefaultOllamaDataDir    = "/var/lib/docker/ollama-data"
	DefaultOSReleasePath    = "/etc/os-release"
	DefaultDistro           = "ubuntu"
	DefaultMinDistroVersion = "22.04"
	DefaultMinFreeDiskGiB   = 50
	DefaultStepTimeout      = 30 * time.Minute
	DefaultModelTimeout     = 2 * time.Hour
	DefaultModelRetries     = 3
	DefaultShellRC          = "~/.bashrc"

	LedgerFileName = "ledger.yaml"
	LogFileName    = "install.log"
	LockFileName   = ".aistack.lock"
)

// Service describes a containerised service.
type Service struct {
	Name  string
	Image string
	Port  int
}

// OllamaConfig configures the LLM-serving engine container.
type OllamaConfig struct {
	Service
	DataDir    string
	MinVersion string
}

// ModelsConfig configures model downloads.
type ModelsConfig struct {
	Names   []string
	Timeout time.Duration
	Retries int
}

// PlatformConfig configures the preflight platform checks.
type PlatformConfig struct {
	OSReleasePath  string
	Distro         string
	MinVersion     string
	MinFreeDiskGiB int
}

// ShellConfig configures the helper alias block.
type ShellConfig struct {
	RCFile  string
	Aliases map[string]string
}

// RunOptions are per-invocation switches for the step runner.
type RunOptions struct {
	Force             bool
	RollbackOnFailure bool
	DryRun            bool
	SkipModels        bool
	StepTimeout       time.Duration
}

// Config is the complete installer configuration.
// Treat it as a value: the With* methods return modified copies.
type Config struct {
	InstallDir string
	Ollama     OllamaConfig
	Models     ModelsConfig
	OpenWebUI  Service
	LobeChat   Service
	Platform   PlatformConfig
	Shell      ShellConfig
	Run        RunOptions
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		InstallDir: DefaultInstallDir,
		Ollama: OllamaConfig{
			Service:    Service{Name: "ollama", Image: "ollama/ollama:latest", Port: 11434},
			DataDir:    DefaultOllamaDataDir,
			MinVersion: "0.3.0",
		},
		Models: ModelsConfig{
			Names:   []string{"qwen2.5-coder:7b", "llama3.1:8b", "nomic-embed-text"},
			Timeout: DefaultModelTimeout,
			Retries: DefaultModelRetries,
		},
		OpenWebUI: Service{Name: "open-webui", Image: "ghcr.io/open-webui/open-webui:main", Port: 3000},
		LobeChat:  Service{Name: "lobe-chat", Image: "lobehub/lobe-chat:latest", Port: 3210},
		Platform: PlatformConfig{
			OSReleasePath:  DefaultOSReleasePath,
			Distro:         DefaultDistro,
			MinVersion:     DefaultMinDistroVersion,
			MinFreeDiskGiB: DefaultMinFreeDiskGiB,
		},
		Shell: ShellConfig{
			RCFile: DefaultShellRC,
			Aliases: map[string]string{
				"ollama":      "docker exec -it ollama ollama",
				"ai-models":   "docker exec ollama ollama list",
				"ai-status":   "docker ps --filter name=ollama --filter name=open-webui --filter name=lobe-chat",
				"ai-logs":     "docker logs -f --tail 100 ollama",
				"ai-restart":  "docker restart ollama open-webui lobe-chat",
				"ai-gpu":      "watch -n 1 nvidia-smi",
				"ai-chat":     "docker exec -it ollama ollama run qwen2.5-coder:7b",
				"ai-webui":    "xdg-open http://localhost:3000",
				"ai-lobechat": "xdg-open http://localhost:3210",
			},
		},
		Run: RunOptions{StepTimeout: DefaultStepTimeout},
	}
}

// LedgerPath returns the ledger file location.
func (c Config) LedgerPath() string {
	return filepath.Join(c.InstallDir, LedgerFileName)
}

// LogPath returns the install log location.
func (c Config) LogPath() string {
	return filepath.Join(c.InstallDir, LogFileName)
}

// LockPath returns the advisory lock file location.
func (c Config) LockPath() string {
	return filepath.Join(c.InstallDir, LockFileName)
}

// AliasNames returns the alias names in sorted order.
func (c Config) AliasNames() []string {
	names := make([]string, 0, len(c.Shell.Aliases))
	for name := range c.Shell.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overrides carries values set explicitly on the command line.
// Nil fields leave the configuration unchanged.
type Overrides struct {
	InstallDir        *string
	StepTimeout       *time.Duration
	Force             *bool
	RollbackOnFailure *bool
	DryRun            *bool
	SkipModels        *bool
}

// WithOverrides returns a copy with the non-nil overrides applied.
func (c Config) WithOverrides(o Overrides) Config {
	out := c.clone()
	if o.InstallDir != nil {
		out.InstallDir = *o.InstallDir
	}
	if o.StepTimeout != nil {
		out.Run.StepTimeout = *o.StepTimeout
	}
	if o.Force != nil {
		out.Run.Force = *o.Force
	}
	if o.RollbackOnFailure != nil {
		out.Run.RollbackOnFailure = *o.RollbackOnFailure
	}
	if o.DryRun != nil {
		out.Run.DryRun = *o.DryRun
	}
	if o.SkipModels != nil {
		out.Run.SkipModels = *o.SkipModels
	}
	return out
}

// WithHome returns a copy with ~ in user paths expanded against home.
func (c Config) WithHome(home string) Config {
	out := c.clone()
	out.InstallDir = expandHome(out.InstallDir, home)
	out.Shell.RCFile = expandHome(out.Shell.RCFile, home)
	return out
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func (c Config) clone() Config {
	out := c
	out.Models.Names = append([]string(nil), c.Models.Names...)
	out.Shell.Aliases = make(map[string]string, len(c.Shell.Aliases))
	for k, v := range c.Shell.Aliases {
		out.Shell.Aliases[k] = v
	}
	return out
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	errs := NewErrorList()

	if strings.TrimSpace(c.InstallDir) == "" {
		errs.AddValidation("install_dir", "must not be empty", "Set install_dir or pass --install-dir.")
	}

	services := []struct {
		field string
		svc   Service
	}{
		{"ollama", c.Ollama.Service},
		{"open_webui", c.OpenWebUI},
		{"lobechat", c.LobeChat},
	}
	for _, s := range services {
		field, svc := s.field, s.svc
		if svc.Name == "" {
			errs.AddValidation(field+".name", "must not be empty", "Give the container a name.")
		}
		if svc.Image == "" {
			errs.AddValidation(field+".image", "must not be empty", "Set a container image reference.")
		}
		if svc.Port < 1 || svc.Port > 65535 {
			errs.AddValidation(field+".port", fmt.Sprintf("%d is out of range", svc.Port), "Use a port between 1 and 65535.")
		}
	}

	if c.Ollama.DataDir == "" || !filepath.IsAbs(c.Ollama.DataDir) {
		errs.AddValidation("ollama.data_dir", "must be an absolute path", "Use a path such as /var/lib/docker/ollama-data.")
	}
	if c.Ollama.MinVersion != "" && !semver.IsValid(CanonicalVersion(c.Ollama.MinVersion)) {
		errs.AddValidation("ollama.min_version", fmt.Sprintf("%q is not a version", c.Ollama.MinVersion), "Use a version such as 0.3.0.")
	}

	for i, name := range c.Models.Names {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t") {
			errs.AddValidation(fmt.Sprintf("models.names[%d]", i), fmt.Sprintf("%q is not a model tag", name), "Use tags such as llama3.1:8b.")
		}
	}
	if c.Models.Retries < 0 {
		errs.AddValidation("models.retries", "must not be negative", "Set retries to 0 or more.")
	}
	if c.Models.Timeout <= 0 {
		errs.AddValidation("models.timeout", "must be positive", "Use a duration such as 2h.")
	}

	if c.Platform.Distro == "" {
		errs.AddValidation("platform.distro", "must not be empty", "Use ubuntu.")
	}
	if c.Platform.OSReleasePath == "" {
		errs.AddValidation("platform.os_release", "must not be empty", "Use /etc/os-release.")
	}
	if !semver.IsValid(CanonicalVersion(c.Platform.MinVersion)) {
		errs.AddValidation("platform.min_version", fmt.Sprintf("%q is not a version", c.Platform.MinVersion), "Use a release such as 22.04.")
	}
	if c.Platform.MinFreeDiskGiB < 0 {
		errs.AddValidation("platform.min_free_disk_gib", "must not be negative", "Use 0 to disable the disk space advisory.")
	}

	if c.Shell.RCFile == "" {
		errs.AddValidation("shell.rc_file", "must not be empty", "Use ~/.bashrc.")
	}
	for _, name := range c.AliasNames() {
		if name == "" || strings.ContainsAny(name, " \t='\"") {
			errs.AddValidation("shell.aliases", fmt.Sprintf("%q is not a valid alias name", name), "Use letters, digits, - and _.")
		}
	}

	if c.Run.StepTimeout <= 0 {
		errs.AddValidation("runner.step_timeout", "must be positive", "Use a duration such as 30m.")
	}

	return errs.AsError()
}

// CanonicalVersion converts loose version strings such as "24.04" or
// "0.3.14" into the canonical "vMAJOR.MINOR.PATCH" form expected by
// golang.org/x/mod/semver. Leading zeros in numeric parts are dropped.
// Unparseable input is returned with a "v" prefix and fails semver.IsValid.
func CanonicalVersion(v string) string {
	v = strings.TrimSpace(strings.Trim(v, `"'`))
	v = strings.TrimPrefix(v, "v")
	if v == "" {
		return ""
	}

	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}

	parts := strings.Split(core, ".")
	for i, p := range parts {
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" && p != "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return "v" + strings.Join(parts, ".") + suffix
}

// VersionAtLeast reports whether have >= want. Invalid versions compare as false.
func VersionAtLeast(have, want string) bool {
	h, w := CanonicalVersion(have), CanonicalVersion(want)
	if !semver.IsValid(h) || !semver.IsValid(w) {
		return false
	}
	return semver.Compare(h, w) >= 0
}
