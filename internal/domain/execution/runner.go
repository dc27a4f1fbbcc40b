package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/google/uuid"
)

// DefaultStepTimeout bounds a step attempt when neither the step nor the
// runner sets a timeout.
const DefaultStepTimeout = 30 * time.Minute

// Retry backoff bounds.
const (
	DefaultBackoffBase = 2 * time.Second
	DefaultBackoffMax  = time.Minute
)

// Runner executes registry steps in order, consulting and updating the ledger.
type Runner struct {
	logger            ports.Logger
	defaultTimeout    time.Duration
	force             bool
	dryRun            bool
	rollbackOnFailure bool
	backoffBase       time.Duration
	backoffMax        time.Duration
	now               func() time.Time
	sleep             func(ctx context.Context, d time.Duration) error
	newRunID          func() string
}

// NewRunner creates a Runner with default settings.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger:         logger,
		defaultTimeout: DefaultStepTimeout,
		backoffBase:    DefaultBackoffBase,
		backoffMax:     DefaultBackoffMax,
		now:            time.Now,
		sleep:          sleepContext,
		newRunID:       func() string { return uuid.New().String() },
	}
}

func (r *Runner) clone() *Runner {
	c := *r
	return &c
}

// WithDefaultTimeout returns a Runner using d for steps without their own timeout.
func (r *Runner) WithDefaultTimeout(d time.Duration) *Runner {
	c := r.clone()
	if d > 0 {
		c.defaultTimeout = d
	}
	return c
}

// WithForce returns a Runner that re-runs succeeded idempotent steps and
// ignores probes.
func (r *Runner) WithForce(force bool) *Runner {
	c := r.clone()
	c.force = force
	return c
}

// WithDryRun returns a Runner that plans without executing or writing the ledger.
func (r *Runner) WithDryRun(dryRun bool) *Runner {
	c := r.clone()
	c.dryRun = dryRun
	return c
}

// WithRollbackOnFailure returns a Runner that undoes the steps it applied
// when the run aborts. Only steps whose action implements install.Undoer
// are undone.
func (r *Runner) WithRollbackOnFailure(rollback bool) *Runner {
	c := r.clone()
	c.rollbackOnFailure = rollback
	return c
}

// WithBackoff returns a Runner using the given retry backoff bounds.
func (r *Runner) WithBackoff(base, maxDelay time.Duration) *Runner {
	c := r.clone()
	c.backoffBase = base
	c.backoffMax = maxDelay
	return c
}

// WithClock returns a Runner using custom time and sleep functions.
func (r *Runner) WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *Runner {
	c := r.clone()
	c.now = now
	c.sleep = sleep
	return c
}

// WithRunIDGenerator returns a Runner using fn to mint run IDs.
func (r *Runner) WithRunIDGenerator(fn func() string) *Runner {
	c := r.clone()
	c.newRunID = fn
	return c
}

// Plan loads the ledger and returns the decisions a run would make.
func (r *Runner) Plan(ctx context.Context, reg *install.Registry, store ledger.Store) (*Plan, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return BuildPlan(reg.Steps(), ledger.Snapshot(entries), r.force), nil
}

// Run executes every step of reg in order.
// The returned error is non-nil only when the ledger cannot be loaded;
// step failures are reported through the Result.
func (r *Runner) Run(ctx context.Context, reg *install.Registry, store ledger.Store) (Result, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	snapshot := ledger.Snapshot(entries).Clone()
	steps := reg.Steps()
	plan := BuildPlan(steps, snapshot, r.force)

	res := Result{
		RunID:     r.newRunID(),
		Steps:     make([]StepResult, 0, len(steps)),
		DryRun:    r.dryRun,
		StartedAt: r.now(),
	}
	log := r.logger.With(ports.F("run_id", res.RunID))

	if r.dryRun {
		for _, pe := range plan.Entries() {
			sr := newStepResult(pe.Step())
			sr.Reason = pe.Reason()
			if pe.WillExecute() || pe.Decision() == DecisionInterrupted {
				sr.Outcome = OutcomePlanned
			} else {
				sr.Outcome = OutcomeSkipped
			}
			res.Steps = append(res.Steps, sr)
		}
		res.Overall = OverallComplete
		res.Ledger = snapshot
		res.FinishedAt = r.now()
		return res, nil
	}

	exec := &run{
		Runner:   r,
		log:      log,
		store:    store,
		snapshot: snapshot,
		runID:    res.RunID,
	}

	var aborted, partial bool
	for _, pe := range plan.Entries() {
		step := pe.Step()

		if aborted {
			sr := newStepResult(step)
			sr.Outcome = OutcomeNotRun
			res.Steps = append(res.Steps, sr)
			continue
		}
		if err := ctx.Err(); err != nil {
			aborted = true
			res.Err = fmt.Errorf("run cancelled before %s: %w", step.Name, err)
			sr := newStepResult(step)
			sr.Outcome = OutcomeNotRun
			res.Steps = append(res.Steps, sr)
			continue
		}

		sr, ledgerErr := exec.step(ctx, pe)
		res.Steps = append(res.Steps, sr)

		switch {
		case ledgerErr != nil:
			aborted = true
			res.Err = ledgerErr
		case sr.Outcome == OutcomeFailed && ctx.Err() != nil:
			aborted = true
			res.Err = sr.Err
		case sr.Outcome == OutcomeFailed && step.Required:
			aborted = true
			res.Err = sr.Err
			log.Error(ctx, "required step failed; halting", ports.F("step", step.Name), ports.Err(sr.Err))
		case sr.Outcome == OutcomeFailed:
			partial = true
			log.Warn(ctx, "optional step failed; continuing", ports.F("step", step.Name), ports.Err(sr.Err))
		}
	}

	switch {
	case aborted:
		res.Overall = OverallAborted
	case partial:
		res.Overall = OverallPartial
	default:
		res.Overall = OverallComplete
	}

	if aborted && r.rollbackOnFailure && len(exec.applied) > 0 {
		res.Rollbacks = exec.rollback(ctx, &res)
	}

	res.Ledger = exec.snapshot.Clone()
	res.FinishedAt = r.now()
	log.Info(ctx, "run finished",
		ports.F("status", string(res.Overall)),
		ports.F("duration", res.Duration().Round(time.Millisecond).String()),
	)
	return res, nil
}

// run holds the mutable state of a single Run call.
type run struct {
	*Runner
	log      ports.Logger
	store    ledger.Store
	snapshot ledger.Snapshot
	runID    string
	applied  []install.Step
}

func newStepResult(step install.Step) StepResult {
	return StepResult{
		Step:        step.Name,
		Description: step.Description,
		Phase:       step.Phase,
		Required:    step.Required,
		FollowUp:    step.FollowUp,
	}
}

// step handles one step. The error return is reserved for ledger write
// failures, which abort the run.
func (x *run) step(ctx context.Context, pe PlanEntry) (StepResult, error) {
	step := pe.Step()
	sr := newStepResult(step)
	sr.Reason = pe.Reason()
	log := x.log.With(ports.F("step", step.Name))

	entry, ok := x.snapshot[step.Name]
	if !ok {
		entry = ledger.Entry{Step: step.Name, Status: ledger.StatusPending}
	}

	switch pe.Decision() {
	case DecisionSkip:
		sr.Outcome = OutcomeSkipped
		log.Info(ctx, "step skipped", ports.F("reason", sr.Reason))
		return sr, nil

	case DecisionInterrupted:
		stepErr := &StepExecutionError{Step: step.Name, Cause: ErrInterrupted}
		if err := x.transition(ctx, &entry, ledger.StatusFailed, stepErr); err != nil {
			return sr, err
		}
		sr.Outcome = OutcomeFailed
		sr.Err = stepErr
		log.Error(ctx, "step was interrupted and cannot be repeated safely", ports.Err(stepErr))
		return sr, nil

	case DecisionResume:
		log.Warn(ctx, "resuming step interrupted by a previous run")
		if err := x.transition(ctx, &entry, ledger.StatusPending, nil); err != nil {
			return sr, err
		}
	}

	if prober := step.AsProber(); prober != nil && !x.force {
		satisfied, err := x.probe(ctx, step, prober)
		switch {
		case err != nil:
			log.Debug(ctx, "probe failed; running step", ports.Err(err))
		case satisfied:
			if err := x.transition(ctx, &entry, ledger.StatusRunning, nil); err != nil {
				return sr, err
			}
			if err := x.transition(ctx, &entry, ledger.StatusSucceeded, nil); err != nil {
				return sr, err
			}
			sr.Outcome = OutcomeSucceeded
			sr.Reason = "already present on host"
			log.Info(ctx, "step already satisfied")
			return sr, nil
		}
	}

	if err := x.transition(ctx, &entry, ledger.StatusRunning, nil); err != nil {
		return sr, err
	}
	log.Info(ctx, "step started", ports.F("phase", step.Phase.String()))

	start := x.now()
	attempts, runErr := x.attempt(ctx, step, log)
	sr.Duration = x.now().Sub(start)
	sr.Attempts = attempts
	entry.Attempts = attempts

	if runErr != nil {
		stepErr := &StepExecutionError{Step: step.Name, Attempts: attempts, Cause: runErr}
		if err := x.transition(ctx, &entry, ledger.StatusFailed, stepErr); err != nil {
			return sr, err
		}
		sr.Outcome = OutcomeFailed
		sr.Err = stepErr
		log.Error(ctx, "step failed", ports.F("attempts", attempts), ports.Err(runErr))
		return sr, nil
	}

	if err := x.transition(ctx, &entry, ledger.StatusSucceeded, nil); err != nil {
		return sr, err
	}
	x.applied = append(x.applied, step)
	sr.Outcome = OutcomeSucceeded
	log.Info(ctx, "step succeeded", ports.F("duration", sr.Duration.Round(time.Millisecond).String()))
	return sr, nil
}

func (x *run) timeoutFor(step install.Step) time.Duration {
	if step.Timeout > 0 {
		return step.Timeout
	}
	return x.defaultTimeout
}

func (x *run) probe(ctx context.Context, step install.Step, prober install.Prober) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, x.timeoutFor(step))
	defer cancel()
	return prober.Satisfied(probeCtx)
}

// attempt runs the action, retrying with exponential backoff.
func (x *run) attempt(ctx context.Context, step install.Step, log ports.Logger) (int, error) {
	timeout := x.timeoutFor(step)
	attempts := 0
	var lastErr error

	for i := 0; i <= step.Retries; i++ {
		if i > 0 {
			delay := x.backoff(i)
			log.Info(ctx, "retrying step", ports.F("attempt", i+1), ports.F("delay", delay.String()))
			if err := x.sleep(ctx, delay); err != nil {
				return attempts, fmt.Errorf("%w (retry abandoned: %w)", lastErr, err)
			}
		}

		attempts++
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		err := step.Action.Apply(stepCtx)
		timedOut := errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancel()

		if err == nil {
			return attempts, nil
		}
		if timedOut {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("timed out after %s: %w", timeout, err)
			} else {
				err = fmt.Errorf("timed out after %s: %w: %w", timeout, context.DeadlineExceeded, err)
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			return attempts, lastErr
		}
		if i < step.Retries {
			log.Warn(ctx, "step attempt failed", ports.F("attempt", attempts), ports.Err(err))
		}
	}

	return attempts, lastErr
}

// backoff returns the delay before retry n (1-based).
func (x *run) backoff(n int) time.Duration {
	d := x.backoffBase
	for i := 1; i < n; i++ {
		d *= 2
		if d >= x.backoffMax {
			return x.backoffMax
		}
	}
	if d > x.backoffMax {
		return x.backoffMax
	}
	return d
}

// transition validates and persists a status change.
// Writes are not cancelled with the run so a cancelled step still records its failure.
func (x *run) transition(ctx context.Context, entry *ledger.Entry, to ledger.Status, cause error) error {
	next, err := ledger.Advance(*entry, to)
	if err != nil {
		return err
	}
	next.Timestamp = x.now().UTC()
	next.RunID = x.runID
	next.Error = ""
	if cause != nil {
		next.Error = cause.Error()
	}
	if to == ledger.StatusRunning {
		next.Attempts = 0
	}

	if err := x.store.Record(context.WithoutCancel(ctx), next); err != nil {
		return fmt.Errorf("failed to record %s as %s: %w", next.Step, to, err)
	}
	*entry = next
	x.snapshot[next.Step] = next
	return nil
}

// rollback undoes the steps applied in this run, newest first.
func (x *run) rollback(ctx context.Context, res *Result) []RollbackResult {
	rctx := context.WithoutCancel(ctx)
	results := make([]RollbackResult, 0, len(x.applied))
	x.log.Warn(ctx, "rolling back steps applied in this run", ports.F("count", len(x.applied)))

	for i := len(x.applied) - 1; i >= 0; i-- {
		step := x.applied[i]
		rr := RollbackResult{Step: step.Name}

		undoer := step.AsUndoer()
		if undoer == nil {
			rr.Skipped = true
			results = append(results, rr)
			continue
		}

		undoCtx, cancel := context.WithTimeout(rctx, x.timeoutFor(step))
		start := x.now()
		err := undoer.Undo(undoCtx)
		cancel()
		rr.Duration = x.now().Sub(start)

		if err != nil {
			rr.Err = err
			x.log.Error(ctx, "rollback failed", ports.F("step", step.Name), ports.Err(err))
			results = append(results, rr)
			continue
		}

		entry := x.snapshot[step.Name]
		if err := x.transition(rctx, &entry, ledger.StatusPending, nil); err != nil {
			rr.Err = err
			results = append(results, rr)
			continue
		}

		rr.Success = true
		results = append(results, rr)
		for j := range res.Steps {
			if res.Steps[j].Step == step.Name {
				res.Steps[j].Outcome = OutcomeRolledBack
			}
		}
		x.log.Info(ctx, "step rolled back", ports.F("step", step.Name))
	}

	return results
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
