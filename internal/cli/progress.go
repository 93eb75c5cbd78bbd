package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holdfast-app/holdfast/internal/domain"
)

const resetPrompt = "Are you sure you want to reset your current streak? Your longest streak will be saved."

// ─── status ─────────────────────────────────────────────────────────────────

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current streak dashboard",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().Bool("json", false, "Print the snapshot as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	snap := d.Tracker.Snapshot()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	renderStatus(cmd.OutOrStdout(), snap)
	return nil
}

// ─── checkin ────────────────────────────────────────────────────────────────

func newCheckInCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "checkin",
		Aliases: []string{"check-in"},
		Short:   "Record today's check-in",
		Long:    `Record one more day. Only one check-in is accepted per calendar day.`,
		Args:    cobra.NoArgs,
		RunE:    runCheckIn,
	}
}

func runCheckIn(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Tracker.CheckIn(cmd.Context())
	if errors.Is(err, domain.ErrAlreadyCheckedIn) {
		return err
	}
	if err != nil {
		return fmt.Errorf("check-in: %w", err)
	}

	out := cmd.OutOrStdout()
	renderCelebration(out, res.Celebration)
	r := res.Snapshot.Record
	fmt.Fprintf(out, "   %s %s · longest %d · total %d\n", res.Snapshot.Tier.Icon, res.Snapshot.Tier.Name, r.LongestStreak, r.TotalDays)
	if !res.Persisted {
		fmt.Fprintln(out, "⚠️  Check-in recorded for this session, but saving to disk failed.")
	}
	return nil
}

// ─── reset ──────────────────────────────────────────────────────────────────

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the current streak (relapse)",
		Long: `Reset the current streak to zero. Your longest streak and lifetime
total are kept. Asks for confirmation unless --yes is given.`,
		Args: cobra.NoArgs,
		RunE: runReset,
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		confirmed = confirm(cmd, resetPrompt)
	}

	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Tracker.Reset(cmd.Context(), confirmed)
	if errors.Is(err, domain.ErrResetNotConfirmed) {
		fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled. Your streak is unchanged.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Streak reset. Longest streak %d and %d total days are saved.\n",
		res.Snapshot.Record.LongestStreak, res.Snapshot.Record.TotalDays)
	if !res.Persisted {
		fmt.Fprintln(out, "⚠️  Reset applied for this session, but saving to disk failed.")
	}
	return nil
}

// confirm asks a y/N question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// ─── history ────────────────────────────────────────────────────────────────

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent check-ins",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 0, "Show at most N entries (default all)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	history := d.Tracker.Snapshot().Record.History
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}
	renderHistory(cmd.OutOrStdout(), history)
	return nil
}

// ─── milestones ─────────────────────────────────────────────────────────────

func newMilestonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestones",
		Short: "Show milestone progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDaemon(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			snap := d.Tracker.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%d %s)\n\n", snap.Tier.Icon, snap.Tier.Name, snap.Record.CurrentStreak, snap.DayLabel)
			renderTargets(out, snap.Targets)
			if next, ok := domain.NextTarget(snap.Record.CurrentStreak); ok {
				fmt.Fprintf(out, "\n  %d days to %s\n", next.Days-snap.Record.CurrentStreak, next.Label)
			}
			return nil
		},
	}
}
