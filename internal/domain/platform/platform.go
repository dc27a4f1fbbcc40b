// Package platform identifies the host the installer runs on.
package platform

import (
	"os"
	"runtime"
	"strings"
)

// Environment represents the execution environment.
type Environment string

const (
	// EnvNative is a native OS environment.
	EnvNative Environment = "native"
	// EnvWSL is Windows Subsystem for Linux.
	EnvWSL Environment = "wsl"
	// EnvContainer is running inside a container.
	EnvContainer Environment = "container"
)

// Platform contains detected host information.
type Platform struct {
	os          string
	arch        string
	environment Environment
}

// Probe paths, replaced in tests.
var (
	procVersionPath = "/proc/version"
	dockerEnvPath   = "/.dockerenv"
	cgroupPath      = "/proc/1/cgroup"
)

// Detect inspects the running host.
func Detect() *Platform {
	p := &Platform{
		os:          runtime.GOOS,
		arch:        runtime.GOARCH,
		environment: EnvNative,
	}
	if p.os == "linux" {
		p.environment = detectLinuxEnvironment()
	}
	return p
}

// New creates a Platform with specified values.
func New(goos, arch string, env Environment) *Platform {
	return &Platform{os: goos, arch: arch, environment: env}
}

func detectLinuxEnvironment() Environment {
	if data, err := os.ReadFile(procVersionPath); err == nil {
		version := strings.ToLower(string(data))
		if strings.Contains(version, "microsoft") || strings.Contains(version, "wsl") {
			return EnvWSL
		}
	}

	if _, err := os.Stat(dockerEnvPath); err == nil {
		return EnvContainer
	}
	if data, err := os.ReadFile(cgroupPath); err == nil {
		s := string(data)
		if strings.Contains(s, "docker") || strings.Contains(s, "containerd") {
			return EnvContainer
		}
	}

	return EnvNative
}

// OS returns the operating system (GOOS).
func (p *Platform) OS() string {
	return p.os
}

// Arch returns the architecture (GOARCH).
func (p *Platform) Arch() string {
	return p.arch
}

// Environment returns the execution environment.
func (p *Platform) Environment() Environment {
	return p.environment
}

// IsLinux returns true if running on Linux (native, WSL or container).
func (p *Platform) IsLinux() bool {
	return p.os == "linux"
}

// IsWSL returns true if running in WSL.
func (p *Platform) IsWSL() bool {
	return p.environment == EnvWSL
}

// IsContainer returns true if running inside a container.
func (p *Platform) IsContainer() bool {
	return p.environment == EnvContainer
}

// String returns a human-readable description.
func (p *Platform) String() string {
	parts := []string{p.os, p.arch}
	if p.environment != EnvNative {
		parts = append(parts, string(p.environment))
	}
	return strings.Join(parts, "/")
}
