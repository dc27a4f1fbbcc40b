// Package testutil provides test helpers shared by the aistack packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTempFile writes content to a file in dir and returns its path.
// Missing parent directories are created.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent of %s", filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "failed to write temp file: %s", filename)

	return path
}

// WriteTempDir creates a subdirectory of dir.
func WriteTempDir(t testing.TB, dir, dirname string) string {
	t.Helper()

	path := filepath.Join(dir, dirname)
	require.NoError(t, os.MkdirAll(path, 0o755), "failed to create temp subdirectory: %s", dirname)

	return path
}

// SetEnv sets an environment variable for the duration of the test.
// Tests using it must not call t.Parallel.
func SetEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

// UnsetEnv removes an environment variable and restores it after the test.
func UnsetEnv(t *testing.T, key string) {
	t.Helper()

	// t.Setenv registers the restore and rejects parallel tests.
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
