package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOSReleaseBuilder(t *testing.T) {
	t.Parallel()

	content := NewOSRelease("24.04").String()

	assert.Contains(t, content, "ID=ubuntu\n")
	assert.Contains(t, content, "VERSION_ID=\"24.04\"\n")
	assert.Contains(t, content, "PRETTY_NAME=\"Ubuntu 24.04\"\n")
}

func TestOSReleaseBuilder_Overrides(t *testing.T) {
	t.Parallel()

	path := NewOSRelease("12").
		WithID("debian").
		WithField("ID_LIKE", "").
		WithField("VERSION_CODENAME", "bookworm").
		Write(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Equal(t, "os-release", filepath.Base(path))
	assert.Contains(t, content, "ID=debian\n")
	assert.Contains(t, content, "VERSION_ID=12\n")
	assert.Contains(t, content, "VERSION_CODENAME=bookworm\n")
	assert.NotContains(t, content, "ID_LIKE")
}

func TestConfigFileBuilder_YAML(t *testing.T) {
	t.Parallel()

	out := NewConfigFile().
		Set("install_dir", "/opt/local-ai").
		Set("ollama.port", 11500).
		Set("ollama.min_version", "0.4.0").
		YAML(t)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "/opt/local-ai", doc["install_dir"])
	assert.Equal(t, map[string]any{"port": 11500, "min_version": "0.4.0"}, doc["ollama"])
}

func TestConfigFileBuilder_TOML(t *testing.T) {
	t.Parallel()

	out := NewConfigFile().
		Set("shell.rc_file", "~/.zshrc").
		Set("shell.aliases", map[string]string{"gpu": "nvidia-smi"}).
		TOML(t)

	var doc struct {
		Shell struct {
			RCFile  string            `toml:"rc_file"`
			Aliases map[string]string `toml:"aliases"`
		} `toml:"shell"`
	}
	require.NoError(t, toml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "~/.zshrc", doc.Shell.RCFile)
	assert.Equal(t, map[string]string{"gpu": "nvidia-smi"}, doc.Shell.Aliases)
}

func TestConfigFileBuilder_WritePicksFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := NewConfigFile().Set("models.retries", 5)

	yamlPath := b.Write(t, dir, "aistack.yaml")
	tomlPath := b.Write(t, dir, "aistack.toml")

	AssertFileContains(t, yamlPath, "retries: 5")
	AssertFileContains(t, tomlPath, "retries = 5")
}
