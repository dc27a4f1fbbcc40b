package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteTempFile_CreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteTempFile(t, dir, filepath.Join("local-ai", "ledger.yaml"), "version: 1\n")

	assert.Equal(t, filepath.Join(dir, "local-ai", "ledger.yaml"), path)
	AssertFileEquals(t, path, "version: 1\n")
}

func TestWriteTempDir(t *testing.T) {
	t.Parallel()

	path := WriteTempDir(t, t.TempDir(), "ollama")

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetEnv(t *testing.T) {
	SetEnv(t, "AISTACK_TESTUTIL_VAR", "set")
	assert.Equal(t, "set", os.Getenv("AISTACK_TESTUTIL_VAR"))
}

func TestUnsetEnv(t *testing.T) {
	SetEnv(t, "AISTACK_TESTUTIL_GONE", "present")
	UnsetEnv(t, "AISTACK_TESTUTIL_GONE")

	_, ok := os.LookupEnv("AISTACK_TESTUTIL_GONE")
	assert.False(t, ok)
}
