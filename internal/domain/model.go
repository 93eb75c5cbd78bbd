// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture and depends on nothing.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryLimit is the number of most recent check-ins kept in the history.
const HistoryLimit = 30

// ─── Day ────────────────────────────────────────────────────────────────────

// Day is a calendar date with no time-of-day or zone component.
// Two Days are equal when year, month and day match.
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// DayLayout is the canonical wire format for a Day.
const DayLayout = time.DateOnly

// legacyDayLayout is the human-readable form older stored entries use
// ("Tue Oct 14 2026").
const legacyDayLayout = "Mon Jan 02 2006"

// DayOf returns the calendar day containing t as observed in loc.
// A nil loc means time.Local.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Dom: d}
}

// NewDay builds a normalized Day (e.g. Feb 30 → Mar 2).
func NewDay(year int, month time.Month, dom int) Day {
	return DayOf(time.Date(year, month, dom, 12, 0, 0, 0, time.UTC), time.UTC)
}

// ParseDay accepts the canonical ISO layout and the legacy human-readable layout.
func ParseDay(s string) (Day, error) {
	for _, layout := range []string{DayLayout, legacyDayLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t, time.UTC), nil
		}
	}
	return Day{}, fmt.Errorf("invalid day %q", s)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Dom == 0 }

// Equal reports whether d and o denote the same calendar date.
func (d Day) Equal(o Day) bool { return d == o }

// Before reports whether d falls strictly before o.
func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Dom < o.Dom
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return NewDay(d.Year, d.Month, d.Dom+n)
}

// String formats d as 2006-01-02.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Dom)
}

// MarshalJSON encodes d as its ISO string.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes either accepted layout.
func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ─── Progress Record ────────────────────────────────────────────────────────

// HistoryEntry is one successful check-in and the streak it produced.
type HistoryEntry struct {
	Date   Day `json:"date"`
	Streak int `json:"streak"`
}

// ProgressRecord is the full persisted state of a tracker.
// Mutate it only through CheckIn and Reset.
type ProgressRecord struct {
	CurrentStreak int            `json:"current_streak"`
	LongestStreak int            `json:"longest_streak"`
	TotalDays     int            `json:"total_days"`
	LastCheckIn   *Day           `json:"last_checkin,omitempty"`
	History       []HistoryEntry `json:"history"`
}

// CheckedInOn reports whether the last check-in happened on day.
func (r *ProgressRecord) CheckedInOn(day Day) bool {
	return r.LastCheckIn != nil && r.LastCheckIn.Equal(day)
}

// CheckIn records one more day of adherence on day.
// Returns ErrAlreadyCheckedIn and leaves r untouched if day was already recorded.
func (r *ProgressRecord) CheckIn(day Day) error {
	if r.CheckedInOn(day) {
		return ErrAlreadyCheckedIn
	}

	r.CurrentStreak++
	r.TotalDays++
	if r.CurrentStreak > r.LongestStreak {
		r.LongestStreak = r.CurrentStreak
	}
	d := day
	r.LastCheckIn = &d

	history := make([]HistoryEntry, 0, len(r.History)+1)
	history = append(history, r.History...)
	history = append(history, HistoryEntry{Date: day, Streak: r.CurrentStreak})
	r.History = TrimHistory(history)
	return nil
}

// Reset zeroes the current streak and forgets the last check-in.
// LongestStreak, TotalDays and History are preserved.
func (r *ProgressRecord) Reset() {
	r.CurrentStreak = 0
	r.LastCheckIn = nil
}

// Normalize repairs invariants that stored data may violate.
func (r *ProgressRecord) Normalize() {
	if r.LongestStreak < r.CurrentStreak {
		r.LongestStreak = r.CurrentStreak
	}
	r.History = TrimHistory(r.History)
}

// Clone returns a deep copy of r.
func (r ProgressRecord) Clone() ProgressRecord {
	out := r
	if r.LastCheckIn != nil {
		d := *r.LastCheckIn
		out.LastCheckIn = &d
	}
	out.History = append([]HistoryEntry(nil), r.History...)
	return out
}

// TrimHistory keeps the last HistoryLimit entries, evicting the oldest first.
func TrimHistory(h []HistoryEntry) []HistoryEntry {
	if len(h) <= HistoryLimit {
		return h
	}
	return append([]HistoryEntry(nil), h[len(h)-HistoryLimit:]...)
}
