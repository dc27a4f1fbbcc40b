package ports

import (
	"os"
	"path/filepath"
	"strings"
)

// FileSystem provides the file operations used by installation steps.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
}

// ExpandPath expands ~ to the given home directory.
// An empty home falls back to the current user's home directory.
func ExpandPath(path, home string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		home = h
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
