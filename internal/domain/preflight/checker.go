// Package preflight gates installation on privilege and platform identity
// and collects non-fatal host advisories.
package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/domain/platform"
	"github.com/felixgeelhaar/aistack/internal/ports"
)

const gib = 1 << 30

// Checker runs the preflight checks. It never mutates the host.
type Checker struct {
	cfg       config.PlatformConfig
	dataDir   string
	runner    ports.CommandRunner
	logger    ports.Logger
	euid      func() int
	freeBytes func(path string) (uint64, error)
	host      *platform.Platform
	now       func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithEUID overrides the effective UID source.
func WithEUID(fn func() int) Option {
	return func(c *Checker) { c.euid = fn }
}

// WithDiskProbe overrides the free-space probe.
func WithDiskProbe(fn func(path string) (uint64, error)) Option {
	return func(c *Checker) { c.freeBytes = fn }
}

// WithPlatform overrides host detection.
func WithPlatform(p *platform.Platform) Option {
	return func(c *Checker) { c.host = p }
}

// NewChecker creates a Checker for the given configuration.
func NewChecker(cfg config.Config, runner ports.CommandRunner, logger ports.Logger, opts ...Option) *Checker {
	c := &Checker{
		cfg:       cfg.Platform,
		dataDir:   cfg.Ollama.DataDir,
		runner:    runner,
		logger:    logger,
		euid:      os.Geteuid,
		freeBytes: freeDiskBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.host == nil {
		c.host = platform.Detect()
	}
	return c
}

// CheckPrivilege fails with *PermissionError unless the effective UID is 0.
func (c *Checker) CheckPrivilege() error {
	if euid := c.euid(); euid != 0 {
		return &PermissionError{EUID: euid}
	}
	return nil
}

// CheckPlatform fails with *UnsupportedPlatformError unless the OS identity
// matches the supported distribution at or above the minimum version.
func (c *Checker) CheckPlatform() error {
	_, err := c.checkPlatform()
	return err
}

func (c *Checker) checkPlatform() (platform.OSRelease, error) {
	unsupported := func(rel platform.OSRelease, reason string) *UnsupportedPlatformError {
		return &UnsupportedPlatformError{
			ID:         rel.ID,
			VersionID:  rel.VersionID,
			Want:       c.cfg.Distro,
			MinVersion: c.cfg.MinVersion,
			Reason:     reason,
		}
	}

	rel, err := platform.ReadOSRelease(c.cfg.OSReleasePath)
	if err != nil {
		return rel, unsupported(rel, fmt.Sprintf("cannot read OS identity: %v", err))
	}
	if !rel.Is(c.cfg.Distro) {
		return rel, unsupported(rel, fmt.Sprintf("expected %s", c.cfg.Distro))
	}
	if c.cfg.MinVersion != "" && !config.VersionAtLeast(rel.VersionID, c.cfg.MinVersion) {
		return rel, unsupported(rel, fmt.Sprintf("version below %s", c.cfg.MinVersion))
	}
	return rel, nil
}

// Run checks privilege, then platform, returning the first failure.
// When both pass it gathers advisories.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	start := c.now()
	report := Report{Platform: c.host, CheckedAt: start}

	if err := c.CheckPrivilege(); err != nil {
		return report, err
	}

	rel, err := c.checkPlatform()
	report.Release = rel
	if err != nil {
		return report, err
	}
	c.logger.Debug(ctx, "platform supported", ports.F("os", rel.String()), ports.F("host", c.host.String()))

	report.Advisories = append(report.Advisories, c.hostAdvisories()...)
	report.Advisories = append(report.Advisories, c.gpuAdvisory(ctx))
	if a, ok := c.diskAdvisory(); ok {
		report.Advisories = append(report.Advisories, a)
	}

	for _, a := range report.Advisories {
		fields := []ports.Field{ports.F("check", a.Check)}
		if a.Severity == SeverityWarning {
			c.logger.Warn(ctx, a.Message, fields...)
		} else {
			c.logger.Info(ctx, a.Message, fields...)
		}
	}

	report.Duration = c.now().Sub(start)
	return report, nil
}

func (c *Checker) hostAdvisories() []Advisory {
	var out []Advisory
	if c.host.Arch() != "amd64" {
		out = append(out, Advisory{
			Check:      "architecture",
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("untested architecture %s", c.host.Arch()),
			Suggestion: "GPU driver and container images are tested on amd64 only.",
		})
	}
	switch {
	case c.host.IsWSL():
		out = append(out, Advisory{
			Check:      "environment",
			Severity:   SeverityWarning,
			Message:    "running under WSL",
			Suggestion: "Install the NVIDIA driver on the Windows host; the nvidia:driver step will not work inside WSL.",
		})
	case c.host.IsContainer():
		out = append(out, Advisory{
			Check:      "environment",
			Severity:   SeverityWarning,
			Message:    "running inside a container",
			Suggestion: "Run aistack on the host so it can manage the GPU driver and Docker.",
		})
	}
	return out
}

func (c *Checker) gpuAdvisory(ctx context.Context) Advisory {
	result, err := c.runner.Run(ctx, "lspci")
	if err != nil || !result.Success() {
		return Advisory{
			Check:      "gpu",
			Severity:   SeverityWarning,
			Message:    "could not list PCI devices",
			Suggestion: "lspci is installed by the base:packages step; GPU presence is checked again by nvidia:driver.",
		}
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "nvidia") {
			continue
		}
		if strings.Contains(lower, "vga") || strings.Contains(lower, "3d controller") || strings.Contains(lower, "display") {
			return Advisory{
				Check:    "gpu",
				Severity: SeverityInfo,
				Message:  "NVIDIA GPU detected: " + strings.TrimSpace(line),
			}
		}
	}

	return Advisory{
		Check:      "gpu",
		Severity:   SeverityWarning,
		Message:    "no NVIDIA GPU detected",
		Suggestion: "Models will run on CPU only. Check that the card is seated and visible in lspci.",
	}
}

func (c *Checker) diskAdvisory() (Advisory, bool) {
	if c.cfg.MinFreeDiskGiB <= 0 {
		return Advisory{}, false
	}

	path := existingAncestor(c.dataDir)
	free, err := c.freeBytes(path)
	if err != nil {
		return Advisory{
			Check:    "disk",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("could not determine free space under %s: %v", path, err),
		}, true
	}

	freeGiB := float64(free) / gib
	if free < uint64(c.cfg.MinFreeDiskGiB)*gib {
		return Advisory{
			Check:      "disk",
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("%.1f GiB free under %s, %d GiB recommended", freeGiB, path, c.cfg.MinFreeDiskGiB),
			Suggestion: "Model downloads may fail. Free space or set ollama.data_dir to a larger volume.",
		}, true
	}
	return Advisory{
		Check:    "disk",
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("%.1f GiB free under %s", freeGiB, path),
	}, true
}

// existingAncestor returns path or its closest existing parent.
func existingAncestor(path string) string {
	p := filepath.Clean(path)
	for {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}
