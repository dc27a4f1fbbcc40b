package report_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/aistack/internal/domain/execution"
	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
	"github.com/felixgeelhaar/aistack/internal/domain/platform"
	"github.com/felixgeelhaar/aistack/internal/domain/preflight"
	"github.com/felixgeelhaar/aistack/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plain renders without colour so output can be matched literally.
func plain() *report.Reporter {
	return report.New(lipgloss.NewRenderer(io.Discard))
}

func sampleResult() execution.Result {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return execution.Result{
		RunID:   "0b7d3c1e",
		Overall: execution.OverallAborted,
		Steps: []execution.StepResult{
			{Step: "base:packages", Outcome: execution.OutcomeSkipped, Reason: "already succeeded"},
			{Step: "nvidia:driver", Outcome: execution.OutcomeSucceeded, FollowUp: "Reboot to load the NVIDIA driver."},
			{Step: "docker:engine", Outcome: execution.OutcomeFailed, Err: errors.New("step docker:engine failed: exit status 100")},
			{Step: "ollama:server", Outcome: execution.OutcomeNotRun},
		},
		Err:        errors.New("step docker:engine failed: exit status 100"),
		StartedAt:  start,
		FinishedAt: start.Add(75 * time.Second),
	}
}

func TestRender_ListsEveryStepOnceInOrder(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	out := plain().Render(res)

	var rows []string
	for _, line := range strings.Split(out, "\n") {
		if fields := strings.Fields(line); len(fields) >= 3 && strings.Contains(fields[1], ":") && !strings.HasSuffix(fields[1], ":") {
			rows = append(rows, fields[1])
		}
	}
	assert.Equal(t, []string{"base:packages", "nvidia:driver", "docker:engine", "ollama:server"}, rows)
}

func TestRender_StatusesAndHeader(t *testing.T) {
	t.Parallel()

	out := plain().Render(sampleResult())

	assert.Contains(t, out, "aistack install: Aborted")
	assert.Contains(t, out, "Run ID: 0b7d3c1e")
	assert.Contains(t, out, "Duration: 1m15s")
	assert.Contains(t, out, "Succeeded")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "Skipped")
	assert.Contains(t, out, "Not-Run")
	assert.Contains(t, out, "exit status 100")
	assert.Contains(t, out, "1 succeeded, 1 failed, 1 skipped, 1 not-run")
	assert.Contains(t, out, "completed steps will be skipped")
}

func TestRender_FollowUps(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Overall = execution.OverallComplete
	res.Err = nil
	res.Steps = append(res.Steps, execution.StepResult{
		Step: "shell:aliases", Outcome: execution.OutcomeFailed, FollowUp: "source ~/.bashrc",
	})

	out := plain().Render(res)

	assert.Contains(t, out, "Next steps")
	assert.Contains(t, out, "Reboot to load the NVIDIA driver.")
	assert.NotContains(t, out, "source ~/.bashrc", "follow-ups come only from successful steps")
	assert.NotContains(t, out, "Error:")
}

func TestRender_Rollback(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Steps[1].Outcome = execution.OutcomeRolledBack
	res.Rollbacks = []execution.RollbackResult{
		{Step: "nvidia:driver", Success: true},
		{Step: "base:packages", Skipped: true},
		{Step: "other", Err: errors.New("container busy")},
	}

	out := plain().Render(res)

	assert.Contains(t, out, "Rolled-Back")
	assert.Contains(t, out, "Rollback")
	assert.Contains(t, out, "undone")
	assert.Contains(t, out, "no undo available")
	assert.Contains(t, out, "container busy")
}

func TestRender_DryRun(t *testing.T) {
	t.Parallel()

	res := execution.Result{
		Overall: execution.OverallComplete,
		DryRun:  true,
		Steps: []execution.StepResult{
			{Step: "docker:engine", Outcome: execution.OutcomePlanned, Reason: "pending", FollowUp: "hidden"},
		},
	}

	out := plain().Render(res)

	assert.Contains(t, out, "aistack install (dry run): Complete")
	assert.Contains(t, out, "Planned")
	assert.NotContains(t, out, "Next steps")
}

func TestRender_NoSteps(t *testing.T) {
	t.Parallel()

	out := plain().Render(execution.Result{Overall: execution.OverallComplete})

	assert.Contains(t, out, "No steps registered.")
}

func noop(context.Context) error { return nil }

func TestRenderLedger(t *testing.T) {
	t.Parallel()

	steps := []install.Step{
		{Name: "base:packages", Phase: install.PhaseBase, Action: install.ActionFunc(noop)},
		{Name: "docker:engine", Phase: install.PhaseRuntime, Action: install.ActionFunc(noop)},
		{Name: "ollama:server", Phase: install.PhaseEngine, Action: install.ActionFunc(noop)},
	}
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := map[string]ledger.Entry{
		"base:packages": {Step: "base:packages", Status: ledger.StatusSucceeded, Timestamp: ts},
		"docker:engine": {Step: "docker:engine", Status: ledger.StatusFailed, Timestamp: ts, Attempts: 2, Error: "exit status 1"},
		"models:old":    {Step: "models:old", Status: ledger.StatusSucceeded, Timestamp: ts},
	}

	out := plain().RenderLedger(steps, entries)

	assert.Contains(t, out, "aistack status")
	assert.Contains(t, out, "2026-03-01 10:00:00Z")
	assert.Contains(t, out, "2 attempts")
	assert.Contains(t, out, "exit status 1")
	assert.Contains(t, out, "1/3 steps succeeded")
	assert.Contains(t, out, "Not in the current configuration")

	lines := strings.Split(out, "\n")
	var ollama string
	for _, l := range lines {
		if strings.Contains(l, "ollama:server") {
			ollama = l
		}
	}
	require.NotEmpty(t, ollama)
	assert.Contains(t, ollama, "Pending")
	assert.Less(t, strings.Index(out, "docker:engine"), strings.Index(out, "ollama:server"))
	assert.Greater(t, strings.Index(out, "models:old"), strings.Index(out, "Not in the current configuration"))
}

func TestRenderLedger_Empty(t *testing.T) {
	t.Parallel()

	out := plain().RenderLedger(nil, nil)

	assert.Contains(t, out, "No installation recorded yet")
	assert.Contains(t, out, "0/0 steps succeeded")
}

func TestRenderPreflight(t *testing.T) {
	t.Parallel()

	rep := preflight.Report{
		Release:  platform.OSRelease{ID: "ubuntu", VersionID: "24.04", PrettyName: "Ubuntu 24.04.1 LTS"},
		Platform: platform.New("linux", "amd64", platform.EnvNative),
		Advisories: []preflight.Advisory{
			{Check: "gpu", Severity: preflight.SeverityWarning, Message: "no NVIDIA GPU detected", Suggestion: "Check lspci output."},
			{Check: "architecture", Severity: preflight.SeverityInfo, Message: "amd64"},
		},
	}

	out := plain().RenderPreflight(rep)

	assert.Contains(t, out, "Preflight passed: Ubuntu 24.04.1 LTS (linux/amd64)")
	assert.Contains(t, out, "! gpu: no NVIDIA GPU detected")
	assert.Contains(t, out, "Check lspci output.")
	assert.Contains(t, out, "i architecture: amd64")
}
