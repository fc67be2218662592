package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep records requested delays without sleeping.
type noSleep struct {
	delays []time.Duration
}

func (s *noSleep) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func fixedJitter(d time.Duration) JitterFunc {
	return func(time.Duration) time.Duration { return d }
}

func testPolicy(sleep *noSleep, opts ...Option) *Policy {
	base := []Option{
		WithBaseDelay(1000 * time.Millisecond),
		WithMaxDelay(30 * time.Second),
		WithMaxRetries(3),
		WithSleep(sleep.sleep),
		WithJitter(fixedJitter(0)),
	}
	return New(append(base, opts...)...)
}

func TestExecute_SucceedsFirstAttempt(t *testing.T) {
	sleep := &noSleep{}
	p := testPolicy(sleep)

	calls := 0
	err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleep.delays)
}

func TestExecute_RetriesRateLimitThenSucceeds(t *testing.T) {
	sleep := &noSleep{}
	p := testPolicy(sleep)

	// Fails with a rate-limit signal on attempts 1-2, succeeds on attempt 3.
	calls := 0
	err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &RateLimitError{Message: "throttled"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleep.delays, 2)
}

func TestExecute_NonRateLimitFailsImmediately(t *testing.T) {
	sleep := &noSleep{}
	p := testPolicy(sleep)

	boom := errors.New("malformed payload")
	calls := 0
	err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleep.delays)
}

func TestExecute_ExhaustedReturnsLastErrorUnwrapped(t *testing.T) {
	sleep := &noSleep{}
	p := testPolicy(sleep)

	last := &RateLimitError{Message: "still throttled"}
	calls := 0
	err := p.Execute(context.Background(), func(context.Context) error {
		calls++
		return last
	})

	// Propagated unchanged so callers can branch on the original error kind.
	assert.Same(t, error(last), err)
	assert.Equal(t, 3, calls)
	assert.Len(t, sleep.delays, 2)
}

func TestExecute_CancelledDuringBackoff(t *testing.T) {
	p := New(
		WithMaxRetries(5),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}),
	)

	err := p.Execute(context.Background(), func(context.Context) error {
		return &RateLimitError{Message: "throttled"}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_ExponentialBase(t *testing.T) {
	p := New(
		WithBaseDelay(time.Second),
		WithMaxDelay(time.Hour),
		WithJitter(fixedJitter(0)),
	)

	throttled := &RateLimitError{Message: "throttled"}
	assert.Equal(t, 1*time.Second, p.Delay(0, throttled))
	assert.Equal(t, 2*time.Second, p.Delay(1, throttled))
	assert.Equal(t, 4*time.Second, p.Delay(2, throttled))
	assert.Equal(t, 8*time.Second, p.Delay(3, throttled))
}

func TestDelay_Monotonic(t *testing.T) {
	p := New(
		WithBaseDelay(500*time.Millisecond),
		WithMaxDelay(30*time.Second),
		WithJitter(fixedJitter(0)),
	)

	throttled := &RateLimitError{Message: "throttled"}
	prev := time.Duration(-1)
	for n := 0; n < 12; n++ {
		d := p.Delay(n, throttled)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", n)
		assert.LessOrEqual(t, d, 30*time.Second, "attempt %d", n)
		prev = d
	}
}

func TestDelay_JitterBound(t *testing.T) {
	base := time.Second
	p := New(
		WithBaseDelay(base),
		WithMaxDelay(time.Hour),
	)

	throttled := &RateLimitError{Message: "throttled"}
	for n := 0; n < 5; n++ {
		floor := base << n
		for i := 0; i < 50; i++ {
			d := p.Delay(n, throttled)
			assert.GreaterOrEqual(t, d, floor)
			assert.LessOrEqual(t, d, floor+base)
		}
	}
}

func TestDelay_CappedAtMax(t *testing.T) {
	p := New(
		WithBaseDelay(time.Second),
		WithMaxDelay(5*time.Second),
		WithJitter(fixedJitter(time.Second)),
	)

	throttled := &RateLimitError{Message: "throttled"}
	assert.Equal(t, 5*time.Second, p.Delay(10, throttled))
	assert.Equal(t, 5*time.Second, p.Delay(60, throttled)) // shift overflow territory
}

func TestDelay_RetryAfterPrecedence(t *testing.T) {
	p := New(
		WithBaseDelay(time.Second),
		WithMaxDelay(30*time.Second),
		WithJitter(fixedJitter(time.Second)),
	)

	hinted := &RateLimitError{Message: "throttled", RetryAfter: 7 * time.Second}
	// Exactly the hint, regardless of attempt index, no jitter.
	assert.Equal(t, 7*time.Second, p.Delay(0, hinted))
	assert.Equal(t, 7*time.Second, p.Delay(4, hinted))

	huge := &RateLimitError{Message: "throttled", RetryAfter: 10 * time.Minute}
	assert.Equal(t, 30*time.Second, p.Delay(0, huge))
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(&RateLimitError{Message: "x"}))
	assert.False(t, IsRateLimit(errors.New("x")))
	assert.False(t, IsRateLimit(nil))

	// Wrapped errors are still recognized.
	wrapped := fmt.Errorf("call failed: %w", &RateLimitError{Message: "inner"})
	assert.True(t, IsRateLimit(wrapped))

	hint, ok := RetryAfterHint(&RateLimitError{Message: "x", RetryAfter: 3 * time.Second})
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, hint)

	_, ok = RetryAfterHint(&RateLimitError{Message: "x"})
	assert.False(t, ok)
}
