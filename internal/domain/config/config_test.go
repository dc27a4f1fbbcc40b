package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "~/local-ai", cfg.InstallDir)
	assert.Equal(t, "/var/lib/docker/ollama-data", cfg.Ollama.DataDir)
	assert.Equal(t, 11434, cfg.Ollama.Port)
	assert.Equal(t, 30*time.Minute, cfg.Run.StepTimeout)
	assert.False(t, cfg.Run.RollbackOnFailure)
}

func TestConfig_Paths(t *testing.T) {
	t.Parallel()

	cfg := Default().WithHome("/home/dev")

	assert.Equal(t, "/home/dev/local-ai", cfg.InstallDir)
	assert.Equal(t, "/home/dev/local-ai/ledger.yaml", cfg.LedgerPath())
	assert.Equal(t, "/home/dev/local-ai/install.log", cfg.LogPath())
	assert.Equal(t, "/home/dev/local-ai/.aistack.lock", cfg.LockPath())
	assert.Equal(t, "/home/dev/.bashrc", cfg.Shell.RCFile)
}

func TestConfig_WithHome_LeavesAbsolutePaths(t *testing.T) {
	t.Parallel()

	base := Default()
	base.InstallDir = "/opt/local-ai"

	cfg := base.WithHome("/home/dev")
	assert.Equal(t, "/opt/local-ai", cfg.InstallDir)

	unchanged := Default().WithHome("")
	assert.Equal(t, "~/local-ai", unchanged.InstallDir)
}

func TestConfig_WithOverrides(t *testing.T) {
	t.Parallel()

	dir := "/srv/ai"
	timeout := 5 * time.Minute
	yes := true

	base := Default()
	cfg := base.WithOverrides(Overrides{
		InstallDir:        &dir,
		StepTimeout:       &timeout,
		Force:             &yes,
		RollbackOnFailure: &yes,
		SkipModels:        &yes,
	})

	assert.Equal(t, "/srv/ai", cfg.InstallDir)
	assert.Equal(t, 5*time.Minute, cfg.Run.StepTimeout)
	assert.True(t, cfg.Run.Force)
	assert.True(t, cfg.Run.RollbackOnFailure)
	assert.True(t, cfg.Run.SkipModels)
	assert.False(t, cfg.Run.DryRun)

	// base is untouched
	assert.Equal(t, DefaultInstallDir, base.InstallDir)
	assert.False(t, base.Run.Force)
}

func TestConfig_CopiesDoNotShareCollections(t *testing.T) {
	t.Parallel()

	base := Default()
	cfg := base.WithOverrides(Overrides{})

	cfg.Models.Names[0] = "changed"
	cfg.Shell.Aliases["ollama"] = "changed"

	assert.NotEqual(t, "changed", base.Models.Names[0])
	assert.NotEqual(t, "changed", base.Shell.Aliases["ollama"])
}

func TestConfig_AliasNamesSorted(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Shell.Aliases = map[string]string{"b": "2", "a": "1", "c": "3"}

	assert.Equal(t, []string{"a", "b", "c"}, cfg.AliasNames())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty install dir", func(c *Config) { c.InstallDir = " " }, "install_dir"},
		{"port out of range", func(c *Config) { c.OpenWebUI.Port = 70000 }, "open_webui.port"},
		{"empty image", func(c *Config) { c.LobeChat.Image = "" }, "lobechat.image"},
		{"relative data dir", func(c *Config) { c.Ollama.DataDir = "data" }, "ollama.data_dir"},
		{"bad ollama version", func(c *Config) { c.Ollama.MinVersion = "latest" }, "ollama.min_version"},
		{"bad model tag", func(c *Config) { c.Models.Names = []string{"llama 3"} }, "models.names[0]"},
		{"negative retries", func(c *Config) { c.Models.Retries = -1 }, "models.retries"},
		{"zero model timeout", func(c *Config) { c.Models.Timeout = 0 }, "models.timeout"},
		{"bad distro version", func(c *Config) { c.Platform.MinVersion = "noble" }, "platform.min_version"},
		{"negative disk", func(c *Config) { c.Platform.MinFreeDiskGiB = -1 }, "platform.min_free_disk_gib"},
		{"bad alias", func(c *Config) { c.Shell.Aliases = map[string]string{"a b": "x"} }, "shell.aliases"},
		{"zero step timeout", func(c *Config) { c.Run.StepTimeout = 0 }, "runner.step_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default().WithOverrides(Overrides{})
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var list *ErrorList
			require.ErrorAs(t, err, &list)
			require.Equal(t, 1, list.Len())
			assert.Equal(t, tt.field, list.Errors()[0].Context)
			assert.True(t, IsUserError(list.Errors()[0], ErrCodeValidationFailed))
		})
	}
}

func TestCanonicalVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"24.04":     "v24.4",
		"22.04":     "v22.4",
		"0.3.14":    "v0.3.14",
		"v1.2.3":    "v1.2.3",
		`"24.04"`:   "v24.4",
		"0.5.0-rc1": "v0.5.0-rc1",
		"10.00.1":   "v10.0.1",
		"":          "",
	}

	for in, want := range tests {
		assert.Equal(t, want, CanonicalVersion(in), "input %q", in)
	}
}

func TestVersionAtLeast(t *testing.T) {
	t.Parallel()

	assert.True(t, VersionAtLeast("24.04", "22.04"))
	assert.True(t, VersionAtLeast("22.04", "22.04"))
	assert.False(t, VersionAtLeast("20.04", "22.04"))
	assert.True(t, VersionAtLeast("0.3.14", "0.3.0"))
	assert.False(t, VersionAtLeast("0.1.32", "0.3.0"))
	assert.False(t, VersionAtLeast("noble", "22.04"))
}
