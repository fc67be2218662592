package retry

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError is the transient-failure signal the policy retries on.
// The remote client raises it for HTTP 429 responses (or an embedded
// rate-limit status code), optionally carrying the server's Retry-After hint.
type RateLimitError struct {
	// Message describes the throttled call.
	Message string

	// RetryAfter is the server-supplied wait hint. Zero when the server gave
	// no hint, in which case exponential backoff applies.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: %s (retry after %s)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited: %s", e.Message)
}

// IsRateLimit returns true if the error is (or wraps) a rate-limit signal.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// RetryAfterHint extracts the Retry-After hint from a rate-limit error.
// The second return value is false when the error carries no hint.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		return rle.RetryAfter, true
	}
	return 0, false
}
