package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/aistack/internal/adapters/command"
	"github.com/felixgeelhaar/aistack/internal/adapters/filesystem"
	"github.com/felixgeelhaar/aistack/internal/adapters/logging"
	"github.com/felixgeelhaar/aistack/internal/app"
	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/ports"
	"github.com/felixgeelhaar/aistack/internal/tui"
	"github.com/spf13/cobra"
)

// loadConfig layers defaults, the config file and explicitly set flags,
// then expands ~ against the invoking user's home.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile, config.Default())
	if err != nil {
		return config.Config{}, err
	}

	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("install-dir") {
		o.InstallDir = &installDir
	}
	if flags.Changed("step-timeout") {
		o.StepTimeout = &stepTimeout
	}
	if flags.Changed("force") {
		o.Force = &force
	}
	if flags.Changed("rollback-on-failure") {
		o.RollbackOnFailure = &rollbackOnFailure
	}
	if flags.Changed("dry-run") {
		o.DryRun = &dryRun
	}
	if flags.Changed("skip-models") {
		o.SkipModels = &skipModels
	}

	cfg = cfg.WithOverrides(o).WithHome(invokingHome())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) *logging.ConsoleLogger {
	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(logJSON),
	)
}

// transcriptRunner is a command runner that can copy its output to the
// install log.
type transcriptRunner interface {
	ports.CommandRunner
	SetTranscript(w io.Writer)
}

// Construction hooks, replaced in tests.
var (
	newCommandRunner = func() transcriptRunner { return command.NewRealRunner() }
	confirmerFactory = newConfirmer
	installerOptions []app.Option
)

func newConfirmer() ports.Confirmer {
	if yesFlag {
		return ports.StaticConfirmer{Answer: true}
	}
	return tui.NewConfirmer(os.Stdin, os.Stdout)
}

// newInstaller wires the real adapters. The install log receives both the
// logger output and the transcript of every command.
func newInstaller(cmd *cobra.Command, cfg config.Config) *app.Installer {
	logger := newLogger(cmd.ErrOrStderr())
	runner := newCommandRunner()

	opts := append([]app.Option{
		app.WithLogSink(func(w io.Writer) func() {
			logger.Tee(w)
			runner.SetTranscript(w)
			return func() {
				runner.SetTranscript(nil)
				logger.Untee(w)
			}
		}),
	}, installerOptions...)
	return app.New(cfg, runner, filesystem.NewRealFileSystem(), confirmerFactory(), logger, cmd.OutOrStdout(), opts...)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	_, err = newInstaller(cmd, cfg).Install(ctx)
	return err
}
