// Package filesystem provides file system adapters.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/aistack/internal/ports"
	"golang.org/x/sys/unix"
)

// RealFileSystem implements ports.FileSystem using actual file system operations.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// ReadFile reads a file and returns its contents.
func (fs *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a file, creating the parent directory if needed.
// The data is written to a sibling temp file and renamed into place so a
// reader never observes a half-written shell rc file. An existing file keeps
// its mode and owner, which matters when running under sudo.
func (fs *RealFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var st unix.Stat_t
	exists := unix.Stat(path, &st) == nil
	if exists {
		perm = os.FileMode(st.Mode) & os.ModePerm
	}

	tmp := path + ".aistack.tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if exists && (int(st.Uid) != os.Geteuid() || int(st.Gid) != os.Getegid()) {
		if err := os.Chown(tmp, int(st.Uid), int(st.Gid)); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("failed to preserve owner of %s: %w", path, err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Exists checks if a file or directory exists.
func (fs *RealFileSystem) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// MkdirAll creates a directory and all parents.
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes a file or empty directory. Removing a missing path is not an error.
func (fs *RealFileSystem) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Ensure RealFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*RealFileSystem)(nil)
