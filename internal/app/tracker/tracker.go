// Package tracker owns the streak state machine.
//
// The tracker holds the in-memory ProgressRecord for a session. Several
// processes may share one database (a running serve plus CLI commands), so
// every mutation goes through CheckIn or Reset:
//  1. Re-read the record from storage
//  2. Apply the change in memory
//  3. Attempt exactly one persistence write
//  4. On write failure: log, count, keep the in-memory change
//
// After a failed write memory is authoritative and re-reads stop until a
// write succeeds again.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/holdfast-app/holdfast/internal/domain"
	"github.com/holdfast-app/holdfast/internal/infra/observability"
)

// Config controls tracker behavior.
type Config struct {
	Location            *time.Location // Calendar used for "today" (default: time.Local)
	CelebrationDuration time.Duration  // How long the check-in banner stays up (default: 3s)
}

// DefaultConfig returns tracker defaults.
func DefaultConfig() Config {
	return Config{
		Location:            time.Local,
		CelebrationDuration: 3 * time.Second,
	}
}

// Snapshot is a read-only projection of the record as of Today.
type Snapshot struct {
	Record         domain.ProgressRecord   `json:"record"`
	Today          domain.Day              `json:"today"`
	CanCheckIn     bool                    `json:"can_checkin"`
	Tier           domain.Tier             `json:"tier"`
	Targets        []domain.TargetProgress `json:"targets"`
	DayLabel       string                  `json:"day_label"`
	StorageHealthy bool                    `json:"storage_healthy"`
}

// Celebration is the transient banner shown after a check-in.
type Celebration struct {
	Title        string        `json:"title"`
	Message      string        `json:"message"`
	DismissAfter time.Duration `json:"dismiss_after"`
}

// CheckInResult is returned from a successful check-in.
type CheckInResult struct {
	Snapshot    Snapshot    `json:"snapshot"`
	Celebration Celebration `json:"celebration"`
	// Persisted is false when the storage write failed; the in-memory
	// record still reflects the check-in.
	Persisted bool `json:"persisted"`
}

// ResetResult is returned from a confirmed reset.
type ResetResult struct {
	Snapshot  Snapshot `json:"snapshot"`
	Persisted bool     `json:"persisted"`
}

// Tracker serializes all access to one ProgressRecord.
type Tracker struct {
	mu     sync.Mutex
	config Config
	store  domain.ProgressStore
	clock  domain.Clock
	tracer *observability.Tracer

	record     domain.ProgressRecord
	ready      bool
	loadIssues []error
	lastWrite  error
}

// New creates a tracker. Call Load before use.
func New(cfg Config, store domain.ProgressStore, clock domain.Clock, tracer *observability.Tracer) *Tracker {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Tracker{
		config: cfg,
		store:  store,
		clock:  clock,
		tracer: tracer,
	}
}

// Load reads the record from storage. It always succeeds; unreadable fields
// fall back to defaults and are returned as issues for display.
func (t *Tracker) Load(ctx context.Context) []error {
	span := t.tracer.StartSpan(ctx, "tracker.load", nil)

	t.mu.Lock()
	rec, issues := t.store.Load()
	t.record = rec
	t.loadIssues = issues
	t.ready = true
	t.observeLocked()
	t.mu.Unlock()

	if len(issues) > 0 {
		observability.StorageFailures.WithLabelValues("read").Add(float64(len(issues)))
		log.Printf("[tracker] loaded with %d unreadable entries", len(issues))
	}
	t.tracer.EndSpan(span, errors.Join(issues...))
	return issues
}

// Ready reports whether Load has completed.
func (t *Tracker) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Today returns the current calendar day in the configured location.
func (t *Tracker) Today() domain.Day {
	return domain.DayOf(t.clock.Now(), t.config.Location)
}

// Snapshot returns the current state as last stored.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.syncLocked()
	return t.snapshotLocked()
}

// CheckIn records today's check-in.
// Returns domain.ErrAlreadyCheckedIn if today is already recorded.
func (t *Tracker) CheckIn(ctx context.Context) (CheckInResult, error) {
	today := t.Today()
	span := t.tracer.StartSpan(ctx, "tracker.checkin", map[string]string{"day": today.String()})

	t.mu.Lock()
	defer t.mu.Unlock()

	t.syncLocked()
	if err := t.record.CheckIn(today); err != nil {
		observability.CheckInsRejected.Inc()
		t.tracer.EndSpan(span, err)
		return CheckInResult{}, err
	}
	observability.CheckIns.Inc()

	writeErr := t.persistLocked(ctx, span, "store.save_checkin", t.store.SaveCheckIn)
	t.observeLocked()
	t.tracer.EndSpan(span, writeErr)

	streak := t.record.CurrentStreak
	log.Printf("[tracker] check-in recorded for %s, streak=%d", today, streak)
	return CheckInResult{
		Snapshot: t.snapshotLocked(),
		Celebration: Celebration{
			Title:        fmt.Sprintf("Day %d!", streak),
			Message:      "Keep going strong!",
			DismissAfter: t.config.CelebrationDuration,
		},
		Persisted: writeErr == nil,
	}, nil
}

// Reset zeroes the current streak. It is destructive, so the caller must
// pass confirmed=true; otherwise domain.ErrResetNotConfirmed is returned and
// nothing changes. Longest streak and total days are preserved.
func (t *Tracker) Reset(ctx context.Context, confirmed bool) (ResetResult, error) {
	span := t.tracer.StartSpan(ctx, "tracker.reset", nil)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.syncLocked()
	if !confirmed {
		t.tracer.EndSpan(span, domain.ErrResetNotConfirmed)
		return ResetResult{Snapshot: t.snapshotLocked()}, domain.ErrResetNotConfirmed
	}

	previous := t.record.CurrentStreak
	t.record.Reset()
	observability.Resets.Inc()

	writeErr := t.persistLocked(ctx, span, "store.save_reset", t.store.SaveReset)
	t.observeLocked()
	t.tracer.EndSpan(span, writeErr)

	log.Printf("[tracker] streak reset (was %d), longest=%d kept", previous, t.record.LongestStreak)
	return ResetResult{Snapshot: t.snapshotLocked(), Persisted: writeErr == nil}, nil
}

// LoadIssues returns the storage-read problems seen by the last read.
func (t *Tracker) LoadIssues() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]error(nil), t.loadIssues...)
}

// LastWriteError returns the error from the most recent persistence write,
// or nil if it succeeded.
func (t *Tracker) LastWriteError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastWrite
}

// RefreshDay republishes day-dependent gauges. Called at local midnight.
func (t *Tracker) RefreshDay() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.syncLocked()
	t.observeLocked()
	return !t.record.CheckedInOn(t.Today())
}

// syncLocked replaces the record with what is stored, picking up changes
// written by other processes. It is skipped while the last write failed.
func (t *Tracker) syncLocked() {
	if !t.ready || t.lastWrite != nil {
		return
	}
	rec, issues := t.store.Load()
	if len(issues) > 0 {
		observability.StorageFailures.WithLabelValues("read").Add(float64(len(issues)))
		log.Printf("[tracker] re-read with %d unreadable entries", len(issues))
	}
	t.record = rec
	t.loadIssues = issues
}

// persistLocked runs save as a child span of parent.
func (t *Tracker) persistLocked(ctx context.Context, parent *observability.Span, op string, save func(domain.ProgressRecord) error) error {
	ctx = observability.WithSpanID(observability.WithTraceID(ctx, parent.TraceID), parent.SpanID)
	span := t.tracer.StartSpan(ctx, op, nil)

	err := save(t.record.Clone())
	t.lastWrite = err
	if err != nil {
		observability.StorageFailures.WithLabelValues("write").Inc()
		log.Printf("[tracker] storage write failed, in-memory state kept: %v", err)
	}
	t.tracer.EndSpan(span, err)
	return err
}

func (t *Tracker) observeLocked() {
	today := t.Today()
	observability.ObserveRecord(t.record.CurrentStreak, t.record.LongestStreak, t.record.TotalDays, t.record.CheckedInOn(today))
}

func (t *Tracker) snapshotLocked() Snapshot {
	today := t.Today()
	streak := t.record.CurrentStreak
	return Snapshot{
		Record:         t.record.Clone(),
		Today:          today,
		CanCheckIn:     !t.record.CheckedInOn(today),
		Tier:           domain.TierFor(streak),
		Targets:        domain.ProgressFor(streak),
		DayLabel:       domain.DayLabel(streak),
		StorageHealthy: t.lastWrite == nil && len(t.loadIssues) == 0,
	}
}
