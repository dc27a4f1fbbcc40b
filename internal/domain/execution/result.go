// Package execution runs installation steps in order against the ledger.
package execution

import (
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
)

// Outcome is the final state of one step in one run.
type Outcome string

// Outcome constants.
const (
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeNotRun     Outcome = "not-run"
	OutcomeRolledBack Outcome = "rolled-back"
	OutcomePlanned    Outcome = "planned"
)

// Overall is the status of a whole run.
type Overall string

// Overall constants.
const (
	OverallComplete Overall = "complete"
	OverallPartial  Overall = "partial"
	OverallAborted  Overall = "aborted"
)

// StepResult captures what happened to a single step.
type StepResult struct {
	Step        string
	Description string
	Phase       install.Phase
	Required    bool
	Outcome     Outcome
	// Reason explains skips, probes and plan decisions.
	Reason   string
	Attempts int
	Duration time.Duration
	Err      error
	FollowUp string
}

// Success returns true if the step ended succeeded or skipped as already done.
func (r StepResult) Success() bool {
	return r.Outcome == OutcomeSucceeded || r.Outcome == OutcomeSkipped
}

// RollbackResult contains the result of undoing a step.
type RollbackResult struct {
	Step     string
	Success  bool
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Result is produced once per run.
type Result struct {
	RunID     string
	Overall   Overall
	Steps     []StepResult
	Ledger    ledger.Snapshot
	Rollbacks []RollbackResult
	// Err is the error that halted the run, if any.
	Err        error
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Step returns the result for a named step.
func (r Result) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Failed returns the steps that failed.
func (r Result) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed {
			out = append(out, s)
		}
	}
	return out
}

// FollowUps returns follow-up instructions from steps that succeeded in
// this run or were already in place, in registry order.
func (r Result) FollowUps() []string {
	var out []string
	for _, s := range r.Steps {
		if s.FollowUp != "" && s.Success() {
			out = append(out, s.FollowUp)
		}
	}
	return out
}

// Counts returns the number of steps per outcome.
func (r Result) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, s := range r.Steps {
		counts[s.Outcome]++
	}
	return counts
}

// Duration returns the wall time of the run.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
