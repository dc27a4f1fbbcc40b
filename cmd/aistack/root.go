package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/aistack/internal/app"
	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/domain/install"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	logJSON    bool
	yesFlag    bool
	installDir string

	// Install flags
	dryRun            bool
	force             bool
	rollbackOnFailure bool
	skipModels        bool
	stepTimeout       time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "aistack",
	Short: "Install a local AI stack on Ubuntu with an NVIDIA GPU",
	Long: `aistack installs and configures a local AI stack:
  NVIDIA driver → Docker + container toolkit → Ollama → models → web UIs

Every step is recorded in a ledger under the install directory. Re-running
aistack skips completed steps and resumes after the last failure.`,
	Args:          cobra.NoArgs,
	RunE:          runInstall,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command. A cancelled confirmation is not an error.
func Execute() error {
	err := rootCmd.Execute()
	if errors.Is(err, app.ErrCancelled) {
		_, _ = fmt.Fprintln(rootCmd.OutOrStdout(), "Cancelled. Nothing was changed.")
		return nil
	}
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write log lines as JSON")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "auto-confirm all prompts")
	rootCmd.PersistentFlags().StringVar(&installDir, "install-dir", config.DefaultInstallDir, "directory holding the ledger and install log")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would run without changing anything")
	rootCmd.Flags().BoolVar(&force, "force", false, "re-run idempotent steps that already succeeded")
	rootCmd.Flags().BoolVar(&rollbackOnFailure, "rollback-on-failure", false, "undo this run's steps when a required step fails")
	rootCmd.Flags().DurationVar(&stepTimeout, "step-timeout", config.DefaultStepTimeout, "default time limit for a single step")
	rootCmd.Flags().BoolVar(&skipModels, "skip-models", false, "do not download models")

	registerFlagCompletions()

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// suggester is implemented by errors that carry an actionable hint.
type suggester interface {
	Suggestion() string
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var errList *config.ErrorList
	if errors.As(err, &errList) {
		return errList.Format()
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var cfgErr *install.ConfigurationError
	if errors.As(err, &cfgErr) {
		if verbose {
			return cfgErr.Format()
		}
		msg := cfgErr.Error()
		if cfgErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", cfgErr.Suggestion)
		}
		return msg
	}

	var s suggester
	if errors.As(err, &s) && s.Suggestion() != "" {
		return fmt.Sprintf("%s\n\nSuggestion: %s", err.Error(), s.Suggestion())
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("install-dir", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}
