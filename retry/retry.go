// Package retry runs operations against flaky external services (the pinning
// API, the IPFS gateway) with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy controls how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// InitialDelay is the wait before the second try.
	InitialDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// Multiplier grows the delay between tries.
	Multiplier float64
}

// DefaultPolicy suits short HTTP calls.
var DefaultPolicy = Policy{
	Attempts:     3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     3 * time.Second,
	Multiplier:   2.0,
}

// Transient reports whether an error is worth retrying. A nil Transient
// retries everything.
type Transient func(error) bool

// Do runs fn under the policy until it succeeds, returns a non-transient
// error, or exhausts its attempts.
func Do[T any](ctx context.Context, policy Policy, transient Transient, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := policy.InitialDelay

	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if transient != nil && !transient(err) {
			return zero, err
		}
		if attempt == policy.Attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		delay = time.Duration(float64(delay) * policy.Multiplier)
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return zero, fmt.Errorf("gave up after %d attempts: %w", policy.Attempts, lastErr)
}
