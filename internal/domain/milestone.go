package domain

import "math"

// ─── Milestone Tiers ────────────────────────────────────────────────────────
// A tier is a badge derived from the current streak. Thresholds are
// inclusive lower bounds; the highest matching tier wins.

// Tier is a named milestone badge.
type Tier struct {
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	MinDays int    `json:"min_days"`
}

// Tiers lists every badge, highest threshold first.
var Tiers = []Tier{
	{Name: "LEGENDARY", Icon: "👑", MinDays: 365},
	{Name: "DIAMOND", Icon: "💎", MinDays: 180},
	{Name: "CHAMPION", Icon: "🏆", MinDays: 90},
	{Name: "ON FIRE", Icon: "🔥", MinDays: 30},
	{Name: "RISING STAR", Icon: "⭐", MinDays: 7},
	{Name: "GROWING", Icon: "🌱", MinDays: 0},
}

// TierFor returns the badge earned by a streak of the given length.
func TierFor(streak int) Tier {
	for _, t := range Tiers {
		if streak >= t.MinDays {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}

// ─── Progress Targets ───────────────────────────────────────────────────────

// Target is a fixed streak goal shown as a progress bar.
type Target struct {
	Days  int    `json:"days"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Targets are shown in ascending order.
var Targets = []Target{
	{Days: 7, Label: "One Week", Icon: "⭐"},
	{Days: 30, Label: "One Month", Icon: "🔥"},
	{Days: 90, Label: "90 Days", Icon: "🏆"},
	{Days: 180, Label: "Half Year", Icon: "💎"},
	{Days: 365, Label: "One Year", Icon: "👑"},
}

// TargetProgress is a Target evaluated against a streak.
type TargetProgress struct {
	Target
	Percent  float64 `json:"percent"`
	Achieved bool    `json:"achieved"`
}

// ProgressFor evaluates every target independently.
// Percent is min(streak/days*100, 100).
func ProgressFor(streak int) []TargetProgress {
	out := make([]TargetProgress, 0, len(Targets))
	for _, t := range Targets {
		pct := math.Min(float64(streak)/float64(t.Days)*100, 100)
		out = append(out, TargetProgress{
			Target:   t,
			Percent:  pct,
			Achieved: streak >= t.Days,
		})
	}
	return out
}

// NextTarget returns the smallest target not yet reached, or false once
// every target has been achieved.
func NextTarget(streak int) (Target, bool) {
	for _, t := range Targets {
		if streak < t.Days {
			return t, true
		}
	}
	return Target{}, false
}

// DayLabel is the singular/plural unit for a streak count.
func DayLabel(streak int) string {
	if streak == 1 {
		return "Day"
	}
	return "Days"
}
