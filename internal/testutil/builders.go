package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// OSReleaseBuilder builds /etc/os-release style files.
type OSReleaseBuilder struct {
	fields map[string]string
}

// NewOSRelease returns a builder for an Ubuntu release.
func NewOSRelease(versionID string) *OSReleaseBuilder {
	return &OSReleaseBuilder{fields: map[string]string{
		"NAME":             "Ubuntu",
		"ID":               "ubuntu",
		"ID_LIKE":          "debian",
		"VERSION_ID":       versionID,
		"PRETTY_NAME":      "Ubuntu " + versionID,
		"VERSION_CODENAME": "noble",
	}}
}

// WithID sets the distribution ID.
func (b *OSReleaseBuilder) WithID(id string) *OSReleaseBuilder {
	b.fields["ID"] = id
	return b
}

// WithField sets an arbitrary key. An empty value removes it.
func (b *OSReleaseBuilder) WithField(key, value string) *OSReleaseBuilder {
	if value == "" {
		delete(b.fields, key)
		return b
	}
	b.fields[key] = value
	return b
}

// String renders the file, quoting values with spaces or dots.
func (b *OSReleaseBuilder) String() string {
	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := b.fields[k]
		if strings.ContainsAny(v, " .") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(&sb, "%s=%s\n", k, v)
	}
	return sb.String()
}

// Write writes the file into a fresh temp dir and returns its path.
func (b *OSReleaseBuilder) Write(t testing.TB) string {
	t.Helper()
	return WriteTempFile(t, t.TempDir(), "os-release", b.String())
}

// ConfigFileBuilder builds aistack configuration files from dotted keys.
type ConfigFileBuilder struct {
	root map[string]any
}

// NewConfigFile creates an empty ConfigFileBuilder.
func NewConfigFile() *ConfigFileBuilder {
	return &ConfigFileBuilder{root: map[string]any{}}
}

// Set stores value under a dotted key such as "ollama.port".
func (b *ConfigFileBuilder) Set(key string, value any) *ConfigFileBuilder {
	parts := strings.Split(key, ".")
	node := b.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
	return b
}

// YAML renders the configuration as YAML.
func (b *ConfigFileBuilder) YAML(t testing.TB) string {
	t.Helper()
	out, err := yaml.Marshal(b.root)
	require.NoError(t, err)
	return string(out)
}

// TOML renders the configuration as TOML.
func (b *ConfigFileBuilder) TOML(t testing.TB) string {
	t.Helper()
	out, err := toml.Marshal(b.root)
	require.NoError(t, err)
	return string(out)
}

// Write renders the file in the format its extension names and returns
// the path. Only .yaml, .yml and .toml are accepted.
func (b *ConfigFileBuilder) Write(t testing.TB, dir, name string) string {
	t.Helper()

	var content string
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		content = b.YAML(t)
	case ".toml":
		content = b.TOML(t)
	default:
		require.FailNow(t, "unsupported config extension", name)
	}
	return WriteTempFile(t, dir, name, content)
}
