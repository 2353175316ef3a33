package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimingConfig holds configuration for timing attack prevention
type TimingConfig struct {
	BaseDelay      time.Duration // Minimum delay applied to failures
	RandomDelay    time.Duration // Upper bound of the random jitter added on top
	DelayOnSuccess bool          // If true, delay even on successful login
}

// TimingDelay pads authentication failures to a roughly constant duration so
// "unknown email" and "wrong password" are indistinguishable by latency.
type TimingDelay struct {
	config TimingConfig
	clock  clockwork.Clock
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig, clock clockwork.Clock) *TimingDelay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimingDelay{
		config: config,
		clock:  clock,
	}
}

// Target returns the total duration an operation with the given outcome
// should take. Zero means no padding.
func (td *TimingDelay) Target(success bool) time.Duration {
	if success && !td.config.DelayOnSuccess {
		return 0
	}
	return td.config.BaseDelay + cryptoJitter(td.config.RandomDelay)
}

// WaitFrom sleeps until at least Target(success) has passed since start
func (td *TimingDelay) WaitFrom(start time.Time, success bool) {
	target := td.Target(success)
	if target == 0 {
		return
	}
	if remaining := target - td.clock.Since(start); remaining > 0 {
		td.clock.Sleep(remaining)
	}
}

// cryptoJitter returns a uniformly random duration in [0, limit) with
// millisecond granularity, using crypto/rand.
func cryptoJitter(limit time.Duration) time.Duration {
	ms := uint64(limit / time.Millisecond)
	if ms == 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:])%ms) * time.Millisecond
}
