package mocks

import (
	"fmt"
	"os"
	"sync"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

// FileSystem is a thread-safe in-memory ports.FileSystem.
type FileSystem struct {
	mu     sync.RWMutex
	files  map[string][]byte
	modes  map[string]os.FileMode
	dirs   map[string]bool
	writes int
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		modes: make(map[string]os.FileMode),
		dirs:  make(map[string]bool),
	}
}

// AddFile adds a file to the mock filesystem.
func (fs *FileSystem) AddFile(path string, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = []byte(content)
	fs.modes[path] = 0o644
}

// AddDir adds a directory to the mock filesystem.
func (fs *FileSystem) AddDir(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
}

// Content returns a file's content, or "" when absent.
func (fs *FileSystem) Content(path string) string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return string(fs.files[path])
}

// Mode returns the permission bits a file was written with.
func (fs *FileSystem) Mode(path string) os.FileMode {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.modes[path]
}

// Writes returns the number of WriteFile calls.
func (fs *FileSystem) Writes() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.writes
}

// ReadFile reads a file from the mock filesystem.
// Missing files yield an error matching os.ErrNotExist.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

// WriteFile writes a file to the mock filesystem.
func (fs *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = append([]byte(nil), data...)
	fs.modes[path] = perm
	fs.writes++
	return nil
}

// Exists checks if a file or directory exists in the mock filesystem.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, fileExists := fs.files[path]
	return fileExists || fs.dirs[path]
}

// Remove removes a file from the mock filesystem.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, path)
	delete(fs.modes, path)
	delete(fs.dirs, path)
	return nil
}

// MkdirAll creates a directory in the mock filesystem.
func (fs *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
	return nil
}

// Reset clears all files and directories.
func (fs *FileSystem) Reset() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files = make(map[string][]byte)
	fs.modes = make(map[string]os.FileMode)
	fs.dirs = make(map[string]bool)
	fs.writes = 0
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
