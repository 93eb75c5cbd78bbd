package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Business rules
	ErrAlreadyCheckedIn  = errors.New("You already checked in today! Come back tomorrow.")
	ErrResetNotConfirmed = errors.New("reset not confirmed: your current streak was kept")

	// Storage errors. Neither is fatal: reads fall back to defaults and
	// writes leave the in-memory record authoritative.
	ErrStorageRead  = errors.New("storage read failed")
	ErrStorageWrite = errors.New("storage write failed")
)
