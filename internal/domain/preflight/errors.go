package preflight

import "fmt"

// PermissionError reports that the installer lacks administrative privilege.
type PermissionError struct {
	EUID int
}

// Error returns the formatted error message.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("administrative privileges required (effective uid %d)", e.EUID)
}

// Suggestion returns an actionable hint.
func (e *PermissionError) Suggestion() string {
	return "Re-run with sudo: sudo aistack"
}

// UnsupportedPlatformError reports a host the installer does not support.
type UnsupportedPlatformError struct {
	ID         string
	VersionID  string
	Want       string
	MinVersion string
	Reason     string
}

// Error returns the formatted error message.
func (e *UnsupportedPlatformError) Error() string {
	found := e.ID
	if found == "" {
		found = "unknown"
	}
	if e.VersionID != "" {
		found += " " + e.VersionID
	}
	return fmt.Sprintf("unsupported platform %s: %s", found, e.Reason)
}

// Suggestion returns an actionable hint.
func (e *UnsupportedPlatformError) Suggestion() string {
	return fmt.Sprintf("aistack supports %s %s or newer.", e.Want, e.MinVersion)
}
