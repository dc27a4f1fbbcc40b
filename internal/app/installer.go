// Package app wires preflight, confirmation, the ledger and the step runner
// into the installer use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/aistack/internal/adapters/flock"
	"github.com/felixgeelhaar/aistack/internal/adapters/ledgerfile"
	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/domain/execution"
	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
	"github.com/felixgeelhaar/aistack/internal/domain/preflight"
	"github.com/felixgeelhaar/aistack/internal/domain/report"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/provider/catalog"
	"github.com/felixgeelhaar/aistack/internal/provider/ollama"
)

var (
	// ErrCancelled is returned when the operator declines the confirmation.
	ErrCancelled = errors.New("cancelled by user")
	// ErrRunAborted is returned when a required step failed or the run was
	// interrupted.
	ErrRunAborted = errors.New("installation aborted")
)

// Checker runs the preflight checks.
type Checker interface {
	Run(ctx context.Context) (preflight.Report, error)
}

// Locker takes the single-instance lock and returns its release function.
type Locker func(path string) (release func() error, err error)

func flockLocker(path string) (func() error, error) {
	l, err := flock.Acquire(path)
	if err != nil {
		return nil, err
	}
	return l.Release, nil
}

func openLogFile(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// Installer runs the installer use cases against one configuration.
type Installer struct {
	cfg        config.Config
	runner     ports.CommandRunner
	fs         ports.FileSystem
	confirmer  ports.Confirmer
	logger     ports.Logger
	out        io.Writer
	reporter   *report.Reporter
	checker    Checker
	store      ledger.Store
	locker     Locker
	openLog    func(path string) (io.WriteCloser, error)
	onLog      func(w io.Writer) (detach func())
	tuneRunner func(*execution.Runner) *execution.Runner
	serverOpts []ollama.ServerOption
}

// Option configures an Installer.
type Option func(*Installer)

// WithChecker replaces the preflight checker.
func WithChecker(c Checker) Option {
	return func(i *Installer) { i.checker = c }
}

// WithStore replaces the YAML ledger file.
func WithStore(s ledger.Store) Option {
	return func(i *Installer) { i.store = s }
}

// WithLocker replaces the flock based instance lock.
func WithLocker(l Locker) Option {
	return func(i *Installer) { i.locker = l }
}

// WithReporter sets the renderer for summaries.
func WithReporter(r *report.Reporter) Option {
	return func(i *Installer) { i.reporter = r }
}

// WithLogSink registers fn to receive the install log file once it is open.
// The CLI uses it to tee the logger and command transcript into the file;
// the returned detach func runs before the file is closed.
func WithLogSink(fn func(w io.Writer) (detach func())) Option {
	return func(i *Installer) { i.onLog = fn }
}

// WithLogOpener replaces how the install log file is opened.
func WithLogOpener(fn func(path string) (io.WriteCloser, error)) Option {
	return func(i *Installer) { i.openLog = fn }
}

// WithRunnerTuning adjusts the step runner before each run.
func WithRunnerTuning(fn func(*execution.Runner) *execution.Runner) Option {
	return func(i *Installer) { i.tuneRunner = fn }
}

// WithServerOptions passes options to the engine server step.
func WithServerOptions(opts ...ollama.ServerOption) Option {
	return func(i *Installer) { i.serverOpts = append(i.serverOpts, opts...) }
}

// New creates an Installer. out receives the rendered summaries.
func New(cfg config.Config, runner ports.CommandRunner, fs ports.FileSystem, confirmer ports.Confirmer, logger ports.Logger, out io.Writer, opts ...Option) *Installer {
	i := &Installer{
		cfg:       cfg,
		runner:    runner,
		fs:        fs,
		confirmer: confirmer,
		logger:    logger,
		out:       out,
		locker:    flockLocker,
		openLog:   openLogFile,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.reporter == nil {
		i.reporter = report.New(nil)
	}
	if i.checker == nil {
		i.checker = preflight.NewChecker(cfg, runner, logger)
	}
	if i.store == nil {
		i.store = ledgerfile.NewYAMLStore(cfg.LedgerPath())
	}
	return i
}

// Registry builds the step registry for the configuration.
func (i *Installer) Registry() (*install.Registry, error) {
	return catalog.Build(i.cfg, i.runner, i.fs, i.serverOpts...)
}

func (i *Installer) stepRunner() *execution.Runner {
	r := execution.NewRunner(i.logger).
		WithDefaultTimeout(i.cfg.Run.StepTimeout).
		WithForce(i.cfg.Run.Force).
		WithDryRun(i.cfg.Run.DryRun).
		WithRollbackOnFailure(i.cfg.Run.RollbackOnFailure)
	if i.tuneRunner != nil {
		r = i.tuneRunner(r)
	}
	return r
}

// Install runs preflight, asks for confirmation and executes every step.
// A declined confirmation returns ErrCancelled without touching the host.
// An aborted run returns its result together with an error wrapping
// ErrRunAborted.
func (i *Installer) Install(ctx context.Context) (execution.Result, error) {
	res, err := i.install(ctx)
	return res, i.explain(err)
}

func (i *Installer) install(ctx context.Context) (execution.Result, error) {
	rep, err := i.checker.Run(ctx)
	if err != nil {
		i.logger.Error(ctx, "preflight failed", ports.Err(err))
		return execution.Result{}, err
	}
	fmt.Fprint(i.out, i.reporter.RenderPreflight(rep))

	reg, err := i.Registry()
	if err != nil {
		return execution.Result{}, err
	}

	if i.cfg.Run.DryRun {
		return i.execute(ctx, reg)
	}

	plan, err := i.stepRunner().Plan(ctx, reg, i.store)
	if err != nil {
		return execution.Result{}, err
	}
	ok, err := i.confirmer.Confirm(ctx, i.prompt(plan))
	if err != nil {
		return execution.Result{}, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		i.logger.Info(ctx, "installation cancelled at confirmation")
		return execution.Result{}, ErrCancelled
	}

	if err := i.fs.MkdirAll(i.cfg.InstallDir, 0o755); err != nil {
		return execution.Result{}, fmt.Errorf("failed to create %s: %w", i.cfg.InstallDir, err)
	}

	release, err := i.locker(i.cfg.LockPath())
	if err != nil {
		return execution.Result{}, err
	}
	defer func() {
		if err := release(); err != nil {
			i.logger.Warn(ctx, "failed to release lock", ports.Err(err))
		}
	}()

	logFile, err := i.openLog(i.cfg.LogPath())
	if err != nil {
		return execution.Result{}, fmt.Errorf("failed to open install log: %w", err)
	}
	detach := func() {}
	if i.onLog != nil {
		detach = i.onLog(logFile)
	}
	defer func() {
		detach()
		_ = logFile.Close()
	}()
	i.logger.Info(ctx, "installation started", ports.F("install_dir", i.cfg.InstallDir), ports.F("steps", reg.Len()))

	return i.execute(ctx, reg)
}

func (i *Installer) execute(ctx context.Context, reg *install.Registry) (execution.Result, error) {
	res, err := i.stepRunner().Run(ctx, reg, i.store)
	if err != nil {
		return res, err
	}
	fmt.Fprint(i.out, "\n"+i.reporter.Render(res))

	if res.Overall == execution.OverallAborted {
		if res.Err != nil {
			return res, fmt.Errorf("%w: %w", ErrRunAborted, res.Err)
		}
		return res, ErrRunAborted
	}
	return res, nil
}

func (i *Installer) prompt(plan *execution.Plan) string {
	sum := plan.Summary()
	var msg string
	if done := sum.Skip; done > 0 {
		msg = fmt.Sprintf("aistack will check %d steps, %d already recorded as done, and install what is missing.", sum.Total, done)
	} else {
		msg = fmt.Sprintf("aistack will install %d components (NVIDIA driver, Docker, Ollama, models and web UIs).", sum.Total)
	}
	msg += fmt.Sprintf(" Progress is recorded in %s.", i.cfg.InstallDir)
	if sum.Rerun > 0 {
		msg += fmt.Sprintf(" --force re-runs %d completed steps.", sum.Rerun)
	}
	return msg + " Continue?"
}

// Status renders the recorded state of every configured step.
func (i *Installer) Status(ctx context.Context) error {
	reg, err := i.Registry()
	if err != nil {
		return err
	}
	entries, err := i.store.Load(ctx)
	if err != nil {
		return i.explain(fmt.Errorf("failed to load ledger: %w", err))
	}
	fmt.Fprint(i.out, i.reporter.RenderLedger(reg.Steps(), entries))
	return nil
}

// Reset discards the ledger after confirmation so the next run starts
// from scratch. Installed components are left in place. An unreadable
// ledger can always be reset.
func (i *Installer) Reset(ctx context.Context) error {
	var prompt string
	entries, err := i.store.Load(ctx)
	switch {
	case errors.Is(err, ledger.ErrLedgerCorrupt):
		i.logger.Warn(ctx, "ledger is unreadable", ports.Err(err))
		prompt = fmt.Sprintf("Discard the unreadable ledger at %s? Installed software is not removed.", i.cfg.LedgerPath())
	case err != nil:
		return fmt.Errorf("failed to load ledger: %w", err)
	case len(entries) == 0:
		fmt.Fprintln(i.out, "Nothing to reset: no installation recorded.")
		return nil
	default:
		prompt = fmt.Sprintf("Forget the %d recorded steps in %s? Installed software is not removed.", len(entries), i.cfg.LedgerPath())
	}

	ok, err := i.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrCancelled
	}

	release, err := i.locker(i.cfg.LockPath())
	if err != nil {
		return i.explain(err)
	}
	defer func() { _ = release() }()

	if err := i.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	i.logger.Info(ctx, "ledger reset", ports.F("path", i.cfg.LedgerPath()))
	fmt.Fprintln(i.out, "Ledger reset. The next run re-checks every step.")
	return nil
}
