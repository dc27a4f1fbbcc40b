package nvidia_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/nvidia"
	"github.com/felixgeelhaar/aistack/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamList = `deb https://nvidia.github.io/libnvidia-container/stable/deb/$(ARCH) /
#deb https://nvidia.github.io/libnvidia-container/experimental/deb/$(ARCH) /
`

func TestDriverAction(t *testing.T) {
	t.Parallel()

	t.Run("probe missing binary", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddError("nvidia-smi", nil, &exec.Error{Name: "nvidia-smi", Err: exec.ErrNotFound})

		ok, err := nvidia.NewDriverAction(runner).Satisfied(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("probe loaded driver", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddResult("nvidia-smi", nil, ports.CommandResult{Stdout: "NVIDIA-SMI 550.54"})

		ok, err := nvidia.NewDriverAction(runner).Satisfied(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("apply", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.SetFallback(ports.CommandResult{})

		require.NoError(t, nvidia.NewDriverAction(runner).Apply(context.Background()))
		assert.Equal(t, []string{"ubuntu-drivers autoinstall"}, runner.CallStrings())
	})
}

func TestToolkitAction_Apply(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.SetFallback(ports.CommandResult{})
	runner.AddResult("curl", []string{"-fsSL", nvidia.ToolkitListURL}, ports.CommandResult{Stdout: upstreamList})
	fs := mocks.NewFileSystem()

	require.NoError(t, nvidia.NewToolkitAction(runner, fs).Apply(context.Background()))

	calls := runner.CallStrings()
	assert.Equal(t, []string{
		"curl -fsSL -o " + nvidia.ToolkitKeyring + ".download " + nvidia.ToolkitKeyURL,
		"gpg --batch --yes --dearmor -o " + nvidia.ToolkitKeyring + " " + nvidia.ToolkitKeyring + ".download",
		"curl -fsSL " + nvidia.ToolkitListURL,
		"apt-get update",
		"apt-get install -y --no-install-recommends nvidia-container-toolkit",
		"nvidia-ctk runtime configure --runtime=docker",
		"systemctl restart docker",
	}, calls)

	list := fs.Content(nvidia.ToolkitListPath)
	assert.Contains(t, list, "deb [signed-by="+nvidia.ToolkitKeyring+"] https://nvidia.github.io/libnvidia-container/stable/deb/$(ARCH) /")
	assert.Contains(t, list, "#deb https://", "commented lines are left alone")
	assert.Equal(t, 0o644, int(fs.Mode(nvidia.ToolkitListPath)))
}

func TestToolkitAction_StopsOnKeyFailure(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.SetFallback(ports.CommandResult{ExitCode: 22, Stderr: "curl: (22) The requested URL returned error: 404"})
	fs := mocks.NewFileSystem()

	err := nvidia.NewToolkitAction(runner, fs).Apply(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Len(t, runner.Calls(), 1)
	assert.Zero(t, fs.Writes())
}

func TestToolkitAction_ProbeAndUndo(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("dpkg-query", []string{"-W", "-f=${Package}\t${db:Status-Status}\n", "nvidia-container-toolkit"},
		ports.CommandResult{Stdout: "nvidia-container-toolkit\tinstalled\n"})
	fs := mocks.NewFileSystem()
	fs.AddFile(nvidia.ToolkitListPath, "deb x")
	action := nvidia.NewToolkitAction(runner, fs)

	ok, err := action.Satisfied(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	step := install.Step{Name: "nvidia:container-toolkit", Action: action}
	require.NotNil(t, step.AsUndoer())
	require.NoError(t, step.AsUndoer().Undo(context.Background()))
	assert.False(t, fs.Exists(nvidia.ToolkitListPath))
}

func TestSignedList(t *testing.T) {
	t.Parallel()

	got := nvidia.SignedList("deb https://a/ /\n  deb https://b/ /\ndeb-src https://c/ /", "/k.gpg")

	assert.Equal(t, "deb [signed-by=/k.gpg] https://a/ /\n  deb [signed-by=/k.gpg] https://b/ /\ndeb-src https://c/ /", got)
}
