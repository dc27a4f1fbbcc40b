package execution

import (
	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
)

// Decision is what the runner will do with a step given the ledger.
type Decision string

// Decision constants.
const (
	DecisionRun         Decision = "run"
	DecisionSkip        Decision = "skip"
	DecisionRerun       Decision = "rerun"
	DecisionResume      Decision = "resume"
	DecisionInterrupted Decision = "interrupted"
)

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step     install.Step
	status   ledger.Status
	decision Decision
	reason   string
}

// Step returns the step to be executed.
func (e PlanEntry) Step() install.Step {
	return e.step
}

// Status returns the step's ledger status before the run.
func (e PlanEntry) Status() ledger.Status {
	return e.status
}

// Decision returns what the runner will do.
func (e PlanEntry) Decision() Decision {
	return e.decision
}

// Reason returns a short explanation of the decision.
func (e PlanEntry) Reason() string {
	return e.reason
}

// WillExecute reports whether the step's action may be invoked.
func (e PlanEntry) WillExecute() bool {
	switch e.decision {
	case DecisionRun, DecisionRerun, DecisionResume:
		return true
	}
	return false
}

// PlanSummary provides aggregate statistics about the plan.
type PlanSummary struct {
	Total       int
	Run         int
	Skip        int
	Rerun       int
	Resume      int
	Interrupted int
}

// Plan is the ordered list of decisions for a run.
type Plan struct {
	entries []PlanEntry
}

// Entries returns all plan entries in registry order.
func (p *Plan) Entries() []PlanEntry {
	return append([]PlanEntry(nil), p.entries...)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// HasChanges returns true if any step would execute.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.WillExecute() {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.decision {
		case DecisionRun:
			summary.Run++
		case DecisionSkip:
			summary.Skip++
		case DecisionRerun:
			summary.Rerun++
		case DecisionResume:
			summary.Resume++
		case DecisionInterrupted:
			summary.Interrupted++
		}
	}
	return summary
}

// decide applies the ledger rules to one step.
func decide(step install.Step, status ledger.Status, force bool) PlanEntry {
	entry := PlanEntry{step: step, status: status}

	switch status {
	case ledger.StatusSucceeded:
		switch {
		case force && step.Idempotent:
			entry.decision, entry.reason = DecisionRerun, "forced re-run"
		case force:
			entry.decision, entry.reason = DecisionSkip, "already succeeded; not idempotent so --force does not repeat it"
		default:
			entry.decision, entry.reason = DecisionSkip, "already succeeded"
		}
	case ledger.StatusRunning:
		if step.Idempotent {
			entry.decision, entry.reason = DecisionResume, "interrupted in a previous run; repeating"
		} else {
			entry.decision, entry.reason = DecisionInterrupted, "interrupted in a previous run; not safe to repeat"
		}
	case ledger.StatusFailed:
		entry.decision, entry.reason = DecisionRun, "retrying after previous failure"
	default:
		entry.decision, entry.reason = DecisionRun, "pending"
	}

	return entry
}

// BuildPlan computes decisions for every step without touching the host.
func BuildPlan(steps []install.Step, snapshot ledger.Snapshot, force bool) *Plan {
	plan := &Plan{entries: make([]PlanEntry, 0, len(steps))}
	for _, step := range steps {
		plan.entries = append(plan.entries, decide(step, snapshot.StatusOf(step.Name), force))
	}
	return plan
}
