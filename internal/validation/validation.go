// Package validation provides input validation utilities that keep
// configuration values from smuggling shell syntax or path traversal into
// the commands the installer runs.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidImageRef    = errors.New("invalid container image reference")
	ErrInvalidModelTag    = errors.New("invalid model tag")
	ErrInvalidContainer   = errors.New("invalid container name")
	ErrInvalidAliasName   = errors.New("invalid alias name")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrInvalidPath        = errors.New("invalid path")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrCommandInjection   = errors.New("potential command injection detected")
	ErrNewlineInjection   = errors.New("newline injection detected")
)

// Compiled regex patterns for validation (compiled once for performance).
var (
	// packageNameRegex matches Debian package names.
	// Examples: "curl", "ca-certificates", "nvidia-container-toolkit", "g++"
	packageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]*$`)

	// imageRefRegex matches registry/repository[:tag][@digest] references.
	// Examples: "ollama/ollama:latest", "ghcr.io/open-webui/open-webui:main"
	imageRefRegex = regexp.MustCompile(`^[a-z0-9]+([._/-][a-z0-9]+)*(:[0-9]+)?(/[a-z0-9]+([._-][a-z0-9]+)*)*(:[A-Za-z0-9_][A-Za-z0-9._-]{0,127})?(@sha256:[a-f0-9]{64})?$`)

	// modelTagRegex matches Ollama model references with an optional namespace and tag.
	// Examples: "llama3.1:8b", "nomic-embed-text", "hf.co/bartowski/Llama-3.2-1B-GGUF:Q4_K_M"
	modelTagRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*(/[a-zA-Z0-9][a-zA-Z0-9._-]*){0,2}(:[A-Za-z0-9][A-Za-z0-9._-]*)?$`)

	// containerNameRegex matches Docker container names.
	// Examples: "ollama", "open-webui", "lobe_chat"
	containerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// aliasNameRegex matches shell alias names.
	// Examples: "ollama", "ai-models", "ai_status"
	aliasNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

	// urlRegex matches HTTP/HTTPS URLs.
	// Examples: "https://nvidia.github.io/libnvidia-container/gpgkey"
	urlRegex = regexp.MustCompile(`^https?://[a-zA-Z0-9][a-zA-Z0-9._/:-]*$`)

	// shellMetaChars contains shell metacharacters that could enable injection
	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidatePackageName validates an apt package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateImageRef validates a container image reference.
func ValidateImageRef(ref string) error {
	if ref == "" {
		return ErrEmptyInput
	}
	if containsShellMeta(ref) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, ref)
	}
	if len(ref) > 512 || !imageRefRegex.MatchString(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidImageRef, ref)
	}
	return nil
}

// ValidateModelTag validates a model reference passed to "ollama pull".
func ValidateModelTag(tag string) error {
	if tag == "" {
		return ErrEmptyInput
	}
	if containsShellMeta(tag) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, tag)
	}
	if len(tag) > 256 || !modelTagRegex.MatchString(tag) {
		return fmt.Errorf("%w: %q", ErrInvalidModelTag, tag)
	}
	return nil
}

// ValidateContainerName validates a Docker container name.
func ValidateContainerName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !containerNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidContainer, name)
	}
	return nil
}

// ValidateAliasName validates a shell alias name.
func ValidateAliasName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !aliasNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAliasName, name)
	}
	return nil
}

// ValidateAliasCommand rejects alias bodies that would break out of the
// managed block line they are written to.
func ValidateAliasCommand(cmd string) error {
	if strings.TrimSpace(cmd) == "" {
		return ErrEmptyInput
	}
	if strings.ContainsAny(cmd, "\n\r") {
		return fmt.Errorf("%w: alias command spans lines", ErrNewlineInjection)
	}
	return nil
}

// ValidateURL validates an HTTP/HTTPS URL.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return ErrEmptyInput
	}
	if len(urlStr) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidURL)
	}
	if containsShellMeta(urlStr) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, urlStr)
	}
	if !urlRegex.MatchString(urlStr) {
		return fmt.Errorf("%w: %q must be a valid HTTP/HTTPS URL", ErrInvalidURL, urlStr)
	}
	return nil
}

// ValidatePath validates a host path used as a volume source or file target.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("%w: path contains a newline", ErrNewlineInjection)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}
	return nil
}

// containsShellMeta checks if a string contains shell metacharacters.
func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	return strings.Contains(path, "%2e%2e") || strings.Contains(path, "%2E%2E")
}
