package domain

import "time"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// KVStore is durable string key-value storage.
type KVStore interface {
	// GetValue returns the stored value and whether the key exists.
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
	DeleteValue(key string) error
}

// ProgressStore loads and persists a ProgressRecord.
type ProgressStore interface {
	// Load never fails as a whole. Each unreadable field is reported as an
	// issue wrapping ErrStorageRead and left at its default.
	Load() (ProgressRecord, []error)

	// SaveCheckIn persists every field touched by a check-in.
	SaveCheckIn(r ProgressRecord) error

	// SaveReset persists every field touched by a reset.
	SaveReset(r ProgressRecord) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }
