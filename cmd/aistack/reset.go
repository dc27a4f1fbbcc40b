package main

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget recorded progress so the next run re-checks every step",
	Long: `Reset removes the installation ledger. Installed packages, containers,
models and shell aliases are left untouched; the next run detects them and
records them again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		return newInstaller(cmd, cfg).Reset(ctx)
	},
}
