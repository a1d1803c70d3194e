package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/brainmesh/config"
)

// Policy configures timeout and retry for one kind of call.
type Policy struct {
	// Timeout bounds each attempt. Zero disables the bound.
	Timeout time.Duration
	// Attempts is the total number of tries, including the first.
	Attempts int
	// BackoffBase is the wait before the second attempt; it doubles per retry.
	BackoffBase time.Duration
	// BackoffMax caps the wait between attempts. Zero means no cap.
	BackoffMax time.Duration
	// RetryWrites allows read-write calls to be retried.
	RetryWrites bool
	// Retryable decides whether a failure is worth another attempt.
	// Defaults to IsTransient.
	Retryable func(err error) bool
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:     60 * time.Second,
		Attempts:    3,
		BackoffBase: 500 * time.Millisecond,
		BackoffMax:  10 * time.Second,
	}
}

// FromConfig builds a policy from the resilience section of a configuration.
func FromConfig(c config.ResilienceConfig) Policy {
	return Policy{
		Timeout:     c.Timeout,
		Attempts:    c.Attempts,
		BackoffBase: c.BackoffBase,
		BackoffMax:  c.BackoffMax,
		RetryWrites: c.RetryWrites,
	}
}

// For returns the policy that applies to a call. Writes run a single
// attempt unless RetryWrites is set; the timeout still applies.
func (p Policy) For(write bool) Policy {
	if write && !p.RetryWrites {
		p.Attempts = 1
	}
	return p
}

// Backoff returns the wait before attempt n+1, given that attempt n failed.
func (p Policy) Backoff(n int) time.Duration {
	if p.BackoffBase <= 0 || n < 1 {
		return 0
	}
	wait := p.BackoffBase
	for i := 1; i < n; i++ {
		wait *= 2
		if p.BackoffMax > 0 && wait >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && wait > p.BackoffMax {
		return p.BackoffMax
	}
	return wait
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsTransient(err)
}

// IsTransient reports whether err is a timeout or exposes Temporary() true
// anywhere in its chain. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}
