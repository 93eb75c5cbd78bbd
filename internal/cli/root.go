// Package cli implements the holdfast command-line interface.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/holdfast-app/holdfast/internal/daemon"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "holdfast",
		Short: "Track a daily check-in streak",
		Long: `HoldFast records one check-in per calendar day and keeps a running
streak, your personal best, a lifetime total and the last 30 check-ins.
Everything is stored locally in a SQLite file under ~/.holdfast.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("home", "", "Data directory (default $HOLDFAST_HOME or ~/.holdfast)")

	root.AddCommand(
		newStatusCmd(),
		newCheckInCmd(),
		newResetCmd(),
		newHistoryCmd(),
		newMilestonesCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// homeDir resolves --home, falling back to the environment default.
func homeDir(cmd *cobra.Command) string {
	if h, _ := cmd.Flags().GetString("home"); h != "" {
		return h
	}
	return daemon.HomeDir()
}

// openDaemon loads config and the record for the command's home.
// The caller must Close the result.
func openDaemon(cmd *cobra.Command) (*daemon.Daemon, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return daemon.New(ctx, homeDir(cmd))
}
