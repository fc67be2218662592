// Package retry implements the bounded exponential-backoff policy that wraps
// every remote workflow call.
//
// Only rate-limit failures are retried. Any other failure, and the last
// failure once the retry budget is exhausted, propagates to the caller
// unchanged so that callers can branch on the original error kind.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Defaults for a policy constructed without options.
const (
	DefaultBaseDelay  = 1000 * time.Millisecond
	DefaultMaxDelay   = 30 * time.Second
	DefaultMaxRetries = 5
)

// SleepFunc suspends the caller for the given duration. Injected so tests can
// substitute a no-op and stay fast. Implementations must honor context
// cancellation.
type SleepFunc func(ctx context.Context, d time.Duration) error

// JitterFunc returns a random duration in [0, max). Injected for
// deterministic tests.
type JitterFunc func(max time.Duration) time.Duration

// Policy is a pure retry policy: configuration is read-only after
// construction and no state is shared between Execute invocations, so a
// single Policy can serve any number of sequential callers.
type Policy struct {
	baseDelay  time.Duration
	maxDelay   time.Duration
	maxRetries int
	sleep      SleepFunc
	jitter     JitterFunc
}

// Option configures a Policy.
type Option func(*Policy)

// WithBaseDelay sets the initial backoff unit.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) { p.baseDelay = d }
}

// WithMaxDelay sets the backoff ceiling.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.maxDelay = d }
}

// WithMaxRetries sets the total attempt cap.
func WithMaxRetries(n int) Option {
	return func(p *Policy) { p.maxRetries = n }
}

// WithSleep replaces the sleep function.
func WithSleep(fn SleepFunc) Option {
	return func(p *Policy) { p.sleep = fn }
}

// WithJitter replaces the jitter source.
func WithJitter(fn JitterFunc) Option {
	return func(p *Policy) { p.jitter = fn }
}

// New creates a Policy with the given options applied over the defaults.
func New(opts ...Option) *Policy {
	p := &Policy{
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		maxRetries: DefaultMaxRetries,
		sleep:      sleepContext,
		jitter:     randomJitter,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxRetries returns the configured attempt cap.
func (p *Policy) MaxRetries() int {
	return p.maxRetries
}

// Execute runs op, retrying on rate-limit failures until it succeeds or the
// attempt cap is reached. The backoff before attempt n+1 is Delay(n, err).
//
// Non-rate-limit failures and the final failure after exhausting retries are
// returned unchanged (no wrapping).
func (p *Policy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRateLimit(lastErr) {
			return lastErr
		}
		if attempt == p.maxRetries-1 {
			break
		}
		if err := p.sleep(ctx, p.Delay(attempt, lastErr)); err != nil {
			return err
		}
	}
	return lastErr
}

// Delay computes the backoff after the given 0-indexed failed attempt.
//
// A Retry-After hint on the failure takes precedence: the delay is exactly
// min(hint, maxDelay) regardless of attempt index. Otherwise the delay is
// min(base*2^attempt + jitter, maxDelay), where jitter is uniform in
// [0, base). The jitter term prevents synchronized retry storms across
// concurrent callers.
func (p *Policy) Delay(attempt int, err error) time.Duration {
	if hint, ok := RetryAfterHint(err); ok {
		return min(hint, p.maxDelay)
	}
	d := p.baseDelay << attempt
	if d > p.maxDelay || d <= 0 { // shift overflow guard
		return p.maxDelay
	}
	return min(d+p.jitter(p.baseDelay), p.maxDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
