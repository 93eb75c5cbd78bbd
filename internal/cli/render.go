package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/holdfast-app/holdfast/internal/app/tracker"
	"github.com/holdfast-app/holdfast/internal/domain"
)

// ─── Text Dashboard ─────────────────────────────────────────────────────────
// Pure projections of a tracker.Snapshot; nothing here mutates state.

const barWidth = 20

// renderStatus draws the full dashboard.
func renderStatus(w io.Writer, s tracker.Snapshot) {
	r := s.Record
	fmt.Fprintf(w, "%s %s\n\n", s.Tier.Icon, s.Tier.Name)
	fmt.Fprintf(w, "  %d %s Clean\n\n", r.CurrentStreak, s.DayLabel)

	fmt.Fprintf(w, "  🔥 Current Streak   %5d  days strong\n", r.CurrentStreak)
	fmt.Fprintf(w, "  🏅 Longest Streak   %5d  personal best\n", r.LongestStreak)
	fmt.Fprintf(w, "  📅 Total Clean Days %5d  lifetime\n\n", r.TotalDays)

	renderTargets(w, s.Targets)
	fmt.Fprintln(w)

	if s.CanCheckIn {
		fmt.Fprintln(w, "  ✓ Ready: run 'holdfast checkin' to record today")
	} else {
		fmt.Fprintln(w, "  ✓ Already Checked In Today")
	}
	if !s.StorageHealthy {
		fmt.Fprintln(w, "  ⚠️  Storage problem: progress may not be saved (see logs)")
	}
}

// renderTargets draws one progress bar per milestone target.
func renderTargets(w io.Writer, targets []domain.TargetProgress) {
	fmt.Fprintln(w, "  📈 Next Milestones")
	for _, t := range targets {
		mark := " "
		if t.Achieved {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %-10s %s %s %5.1f%%  (%d days)\n",
			t.Icon, t.Label, mark, progressBar(t.Percent, barWidth), t.Percent, t.Days)
	}
}

// renderHistory lists check-ins newest first.
func renderHistory(w io.Writer, history []domain.HistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No check-ins yet.")
		fmt.Fprintln(w, "Use 'holdfast checkin' to record your first day.")
		return
	}
	fmt.Fprintf(w, "Recent check-ins (%d):\n", len(history))
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		fmt.Fprintf(w, "  • %s  day %d\n", e.Date, e.Streak)
	}
}

// renderCelebration prints the post-check-in banner.
func renderCelebration(w io.Writer, c tracker.Celebration) {
	fmt.Fprintf(w, "🎉 %s %s\n", c.Title, c.Message)
}

// progressBar renders pct (0–100) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
