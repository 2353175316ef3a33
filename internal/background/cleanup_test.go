package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (c *countingCleaner) CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	return 1, c.err
}

func (c *countingCleaner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type stubPurger struct{ calls int }

func (p *stubPurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls++
	return 0, nil
}

type stubPruner struct{ calls int }

func (p *stubPruner) Prune() int {
	p.calls++
	return 2
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCleanupManager_RunOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	tokens := &countingCleaner{err: errors.New("db down")}
	logs := &stubPurger{}
	attempts := &stubPruner{}
	cm := NewCleanupManager(tokens, logs, attempts, time.Hour, clock, discardLogger())

	cm.RunOnce(context.Background())

	require.Equal(t, 1, tokens.count())
	assert.Equal(t, clock.Now(), tokens.calls[0])
	assert.Equal(t, 1, logs.calls, "a token cleanup failure does not skip later steps")
	assert.Equal(t, 1, attempts.calls)
}

func TestCleanupManager_NilDependencies(t *testing.T) {
	cm := NewCleanupManager(nil, nil, nil, time.Hour, clockwork.NewFakeClock(), discardLogger())

	assert.NotPanics(t, func() { cm.RunOnce(context.Background()) })
}

func TestCleanupManager_RunTicksUntilCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tokens := &countingCleaner{}
	cm := NewCleanupManager(tokens, nil, nil, time.Hour, clock, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cm.Run(ctx) }()

	require.Eventually(t, func() bool { return tokens.count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return tokens.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
