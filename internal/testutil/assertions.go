package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// AssertFileExists asserts that a regular file exists at path.
func AssertFileExists(t testing.TB, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		assert.Fail(t, "file does not exist", "expected file to exist: %s", path)
		return
	}
	require.NoError(t, err)
	assert.False(t, info.IsDir(), "expected file but got directory: %s", path)
}

// AssertFileNotExists asserts that nothing exists at path.
func AssertFileNotExists(t testing.TB, path string, msgAndArgs ...interface{}) {
	t.Helper()

	_, err := os.Stat(path)
	if !os.IsNotExist(err) {
		assert.Fail(t, "expected file to not exist: "+path, msgAndArgs...)
	}
}

// AssertFileMode asserts the permission bits of path.
func AssertFileMode(t testing.TB, path string, want os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, want, info.Mode().Perm(), "mode of %s", path)
}

// AssertFileContains asserts that a file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertFileEquals asserts that a file contains exactly the expected content.
func AssertFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	// Normalize line endings
	actual := strings.ReplaceAll(string(content), "\r\n", "\n")
	expected = strings.ReplaceAll(expected, "\r\n", "\n")

	assert.Equal(t, expected, actual, msgAndArgs...)
}

// AssertYAMLEquals asserts that two YAML documents are semantically equal.
func AssertYAMLEquals(t testing.TB, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedDoc, actualDoc interface{}
	require.NoError(t, yaml.Unmarshal([]byte(expected), &expectedDoc), "failed to parse expected YAML")
	require.NoError(t, yaml.Unmarshal([]byte(actual), &actualDoc), "failed to parse actual YAML")

	assert.Equal(t, expectedDoc, actualDoc, msgAndArgs...)
}
