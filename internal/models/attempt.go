package models

import "time"

// AttemptRecord tracks failed attempts for one identifier (usually an email).
type AttemptRecord struct {
	Count         int
	LastAttemptAt time.Time
	BlockedUntil  *time.Time
}

// AttemptResult is returned after recording an attempt.
type AttemptResult struct {
	Blocked           bool       `json:"blocked"`
	RemainingAttempts int        `json:"remaining_attempts"`
	BlockedUntil      *time.Time `json:"blocked_until,omitempty"`
}
