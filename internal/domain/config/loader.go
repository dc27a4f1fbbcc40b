package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the configuration.
// Pointer and nil-able fields distinguish "unset" from zero values so that a
// partial file only overrides what it names.
type fileConfig struct {
	InstallDir *string          `yaml:"install_dir" toml:"install_dir"`
	Ollama     *ollamaSection   `yaml:"ollama" toml:"ollama"`
	Models     *modelsSection   `yaml:"models" toml:"models"`
	OpenWebUI  *serviceSection  `yaml:"open_webui" toml:"open_webui"`
	LobeChat   *serviceSection  `yaml:"lobechat" toml:"lobechat"`
	Platform   *platformSection `yaml:"platform" toml:"platform"`
	Shell      *shellSection    `yaml:"shell" toml:"shell"`
	Runner     *runnerSection   `yaml:"runner" toml:"runner"`
}

type serviceSection struct {
	Name  *string `yaml:"name" toml:"name"`
	Image *string `yaml:"image" toml:"image"`
	Port  *int    `yaml:"port" toml:"port"`
}

type ollamaSection struct {
	Name       *string `yaml:"name" toml:"name"`
	Image      *string `yaml:"image" toml:"image"`
	Port       *int    `yaml:"port" toml:"port"`
	DataDir    *string `yaml:"data_dir" toml:"data_dir"`
	MinVersion *string `yaml:"min_version" toml:"min_version"`
}

type modelsSection struct {
	Names   []string `yaml:"names" toml:"names"`
	Timeout *string  `yaml:"timeout" toml:"timeout"`
	Retries *int     `yaml:"retries" toml:"retries"`
}

type platformSection struct {
	OSRelease      *string `yaml:"os_release" toml:"os_release"`
	Distro         *string `yaml:"distro" toml:"distro"`
	MinVersion     *string `yaml:"min_version" toml:"min_version"`
	MinFreeDiskGiB *int    `yaml:"min_free_disk_gib" toml:"min_free_disk_gib"`
}

type shellSection struct {
	RCFile  *string           `yaml:"rc_file" toml:"rc_file"`
	Aliases map[string]string `yaml:"aliases" toml:"aliases"`
}

type runnerSection struct {
	StepTimeout *string `yaml:"step_timeout" toml:"step_timeout"`
}

// Format identifies a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// Load reads the file at path and applies it on top of base.
// An empty path returns base unchanged.
func Load(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}

	format, ok := FormatFromPath(path)
	if !ok {
		return Config{}, NewConfigFormatError(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, NewConfigNotFoundError(path)
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data, format, path, base)
}

// Parse decodes data in the given format and applies it on top of base.
// source is used only for error context.
func Parse(data []byte, format Format, source string, base Config) (Config, error) {
	var fc fileConfig

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, NewYAMLParseError(source, err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return Config{}, NewTOMLParseError(source, err)
		}
	default:
		return Config{}, NewConfigFormatError(source)
	}

	return fc.apply(base, source)
}

func (fc fileConfig) apply(base Config, source string) (Config, error) {
	out := base.clone()
	errs := NewErrorList()

	setString(&out.InstallDir, fc.InstallDir)

	if s := fc.Ollama; s != nil {
		serviceSection{Name: s.Name, Image: s.Image, Port: s.Port}.apply(&out.Ollama.Service)
		setString(&out.Ollama.DataDir, s.DataDir)
		setString(&out.Ollama.MinVersion, s.MinVersion)
	}
	if s := fc.OpenWebUI; s != nil {
		s.apply(&out.OpenWebUI)
	}
	if s := fc.LobeChat; s != nil {
		s.apply(&out.LobeChat)
	}

	if s := fc.Models; s != nil {
		if s.Names != nil {
			out.Models.Names = append([]string(nil), s.Names...)
		}
		if s.Retries != nil {
			out.Models.Retries = *s.Retries
		}
		if s.Timeout != nil {
			d, err := time.ParseDuration(*s.Timeout)
			if err != nil {
				errs.Add(durationError(source, "models.timeout", *s.Timeout, err))
			} else {
				out.Models.Timeout = d
			}
		}
	}

	if s := fc.Platform; s != nil {
		setString(&out.Platform.OSReleasePath, s.OSRelease)
		setString(&out.Platform.Distro, s.Distro)
		setString(&out.Platform.MinVersion, s.MinVersion)
		if s.MinFreeDiskGiB != nil {
			out.Platform.MinFreeDiskGiB = *s.MinFreeDiskGiB
		}
	}

	if s := fc.Shell; s != nil {
		setString(&out.Shell.RCFile, s.RCFile)
		if s.Aliases != nil {
			out.Shell.Aliases = make(map[string]string, len(s.Aliases))
			for k, v := range s.Aliases {
				out.Shell.Aliases[k] = v
			}
		}
	}

	if s := fc.Runner; s != nil && s.StepTimeout != nil {
		d, err := time.ParseDuration(*s.StepTimeout)
		if err != nil {
			errs.Add(durationError(source, "runner.step_timeout", *s.StepTimeout, err))
		} else {
			out.Run.StepTimeout = d
		}
	}

	if err := errs.AsError(); err != nil {
		return Config{}, err
	}
	return out, nil
}

func (s serviceSection) apply(svc *Service) {
	setString(&svc.Name, s.Name)
	setString(&svc.Image, s.Image)
	if s.Port != nil {
		svc.Port = *s.Port
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func durationError(source, field, value string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    fmt.Sprintf("%s: %q is not a duration", field, value),
		Context:    source,
		Suggestion: "Use Go duration syntax such as 45m or 2h.",
		Underlying: err,
	}
}
