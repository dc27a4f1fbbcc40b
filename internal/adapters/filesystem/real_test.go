package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealFileSystem_WriteAndRead(t *testing.T) {
	t.Parallel()

	fs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "nested", ".bashrc")

	require.NoError(t, fs.WriteFile(path, []byte("alias ll='ls -l'\n"), 0o644))
	assert.True(t, fs.Exists(path))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alias ll='ls -l'\n", string(data))
	assert.False(t, fs.Exists(path+".aistack.tmp"))
}

func TestRealFileSystem_WritePreservesMode(t *testing.T) {
	t.Parallel()

	fs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), ".bashrc")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	require.NoError(t, fs.WriteFile(path, []byte("y"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRealFileSystem_RemoveMissing(t *testing.T) {
	t.Parallel()

	fs := NewRealFileSystem()
	assert.NoError(t, fs.Remove(filepath.Join(t.TempDir(), "missing")))
}

func TestRealFileSystem_MkdirAll(t *testing.T) {
	t.Parallel()

	fs := NewRealFileSystem()
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fs.MkdirAll(dir, 0o755))
	assert.True(t, fs.Exists(dir))
}
