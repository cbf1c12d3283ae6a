package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient records backoff sleeps instead of performing them.
func testClient(maxAttempts int) (*Client, *[]time.Duration) {
	c := NewClient(time.Second, maxAttempts)
	slept := &[]time.Duration{}
	c.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return c, slept
}

func TestSucceedsFirstAttempt(t *testing.T) {
	c, slept := testClient(3)

	attempts, err := c.Do(context.Background(), "dest", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *slept)
}

func TestRetriesThenSucceeds(t *testing.T) {
	c, slept := testClient(5)

	calls := 0
	attempts, err := c.Do(context.Background(), "dest", func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	// Backoff after failed attempts 0,1,2: 1s, 2s, 4s.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *slept)
}

func TestExhaustsAttemptBudget(t *testing.T) {
	c, slept := testClient(3)

	calls := 0
	lastCause := errors.New("status 503")
	attempts, err := c.Do(context.Background(), "loki", func(ctx context.Context) error {
		calls++
		return lastCause
	})
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "loki", de.Destination)
	assert.Equal(t, 3, de.Attempts)
	assert.ErrorIs(t, de, lastCause)
	assert.Contains(t, de.Error(), "loki")
}

func TestPermanentShortCircuits(t *testing.T) {
	c, slept := testClient(3)

	calls := 0
	attempts, err := c.Do(context.Background(), "webhook", func(ctx context.Context) error {
		calls++
		return Permanent(errors.New("status 400"))
	})
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Attempts)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
}

func TestAttemptContextHasTimeout(t *testing.T) {
	c, _ := testClient(1)
	c.Timeout = 50 * time.Millisecond

	_, err := c.Do(context.Background(), "dest", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 25*time.Millisecond)
		return nil
	})
	assert.NoError(t, err)
}

func TestDefaults(t *testing.T) {
	c := NewClient(0, 0)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, DefaultMaxAttempts, c.MaxAttempts)
}
