// Package progressstore maps a ProgressRecord onto five independent
// key-value entries.
//
// Persistence is advisory durability, not a transaction: every key is read
// and written on its own, and a failed write is reported but never rolled
// back or retried. The in-memory record stays authoritative for the session.
package progressstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/holdfast-app/holdfast/internal/domain"
)

// Storage keys.
const (
	KeyCurrentStreak = "current-streak"
	KeyLongestStreak = "longest-streak"
	KeyTotalDays     = "total-days"
	KeyLastCheckIn   = "last-checkin"
	KeyHistory       = "checkin-history"
)

// Store implements domain.ProgressStore over a domain.KVStore.
type Store struct {
	kv domain.KVStore
}

// New creates a progress store.
func New(kv domain.KVStore) *Store {
	return &Store{kv: kv}
}

var _ domain.ProgressStore = (*Store)(nil)

// Load reads every key independently. A missing key leaves its field at the
// default; an unreadable key does the same and is reported as an issue.
func (s *Store) Load() (domain.ProgressRecord, []error) {
	var (
		rec    domain.ProgressRecord
		issues []error
	)
	fail := func(key string, err error) {
		err = fmt.Errorf("%w: %s: %v", domain.ErrStorageRead, key, err)
		log.Printf("[progressstore] %v (using default)", err)
		issues = append(issues, err)
	}

	for _, key := range []string{KeyCurrentStreak, KeyLongestStreak, KeyTotalDays} {
		raw, ok, err := s.kv.GetValue(key)
		if err != nil {
			fail(key, err)
			continue
		}
		if !ok {
			continue
		}
		n, err := parseCount(raw)
		if err != nil {
			fail(key, err)
			continue
		}
		switch key {
		case KeyCurrentStreak:
			rec.CurrentStreak = n
		case KeyLongestStreak:
			rec.LongestStreak = n
		case KeyTotalDays:
			rec.TotalDays = n
		}
	}

	if raw, ok, err := s.kv.GetValue(KeyLastCheckIn); err != nil {
		fail(KeyLastCheckIn, err)
	} else if ok {
		if day, err := domain.ParseDay(raw); err != nil {
			fail(KeyLastCheckIn, err)
		} else {
			rec.LastCheckIn = &day
		}
	}

	if raw, ok, err := s.kv.GetValue(KeyHistory); err != nil {
		fail(KeyHistory, err)
	} else if ok {
		var history []domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			fail(KeyHistory, err)
		} else {
			rec.History = history
		}
	}

	rec.Normalize()
	return rec, issues
}

// SaveCheckIn writes all five keys.
func (s *Store) SaveCheckIn(r domain.ProgressRecord) error {
	errs := []error{
		s.set(KeyCurrentStreak, strconv.Itoa(r.CurrentStreak)),
		s.set(KeyLongestStreak, strconv.Itoa(r.LongestStreak)),
		s.set(KeyTotalDays, strconv.Itoa(r.TotalDays)),
		s.saveLastCheckIn(r.LastCheckIn),
	}

	history := r.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %v", domain.ErrStorageWrite, KeyHistory, err))
	} else {
		errs = append(errs, s.set(KeyHistory, string(data)))
	}
	return errors.Join(errs...)
}

// SaveReset writes the current streak and clears the last check-in.
// Longest streak, total days and history are not touched.
func (s *Store) SaveReset(r domain.ProgressRecord) error {
	return errors.Join(
		s.set(KeyCurrentStreak, strconv.Itoa(r.CurrentStreak)),
		s.saveLastCheckIn(r.LastCheckIn),
	)
}

func (s *Store) saveLastCheckIn(day *domain.Day) error {
	if day == nil {
		if err := s.kv.DeleteValue(KeyLastCheckIn); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrStorageWrite, KeyLastCheckIn, err)
		}
		return nil
	}
	return s.set(KeyLastCheckIn, day.String())
}

func (s *Store) set(key, value string) error {
	if err := s.kv.SetValue(key, value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrStorageWrite, key, err)
	}
	return nil
}

// parseCount decodes a non-negative decimal counter.
func parseCount(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}
