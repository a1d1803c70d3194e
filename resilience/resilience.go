package resilience

import (
	"context"
	"time"
)

// Operation is a unit of work that can be bounded and retried.
type Operation[T any] func(ctx context.Context) (T, error)

type result[T any] struct {
	val T
	err error
}

// WithTimeout bounds op by d. On expiry the operation's context is cancelled
// and a *TimeoutError is returned right away; the operation is not awaited.
// A non-positive d returns op unchanged.
func WithTimeout[T any](op Operation[T], d time.Duration) Operation[T] {
	if d <= 0 {
		return op
	}
	return func(ctx context.Context) (T, error) {
		var zero T
		ctx, cancel := context.WithCancel(ctx)

		done := make(chan result[T], 1)
		go func() {
			v, err := op(ctx)
			done <- result[T]{val: v, err: err}
		}()

		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case r := <-done:
			cancel()
			return r.val, r.err
		case <-timer.C:
			cancel()
			return zero, &TimeoutError{After: d}
		case <-ctx.Done():
			cancel()
			return zero, ctx.Err()
		}
	}
}

// WithRetry re-invokes op according to p. Non-retryable failures return
// immediately. When more than one attempt was made and all failed, the last
// failure is returned inside an *ExhaustedError.
func WithRetry[T any](op Operation[T], p Policy) Operation[T] {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return func(ctx context.Context) (T, error) {
		var zero T
		var lastErr error
		for attempt := 1; attempt <= attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			v, err := op(ctx)
			if err == nil {
				return v, nil
			}
			lastErr = err
			if !p.retryable(err) || ctx.Err() != nil {
				return zero, err
			}
			if attempt == attempts {
				break
			}
			wait := p.Backoff(attempt)
			if p.OnRetry != nil {
				p.OnRetry(attempt, wait, err)
			}
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return zero, ctx.Err()
				case <-timer.C:
				}
			}
		}
		if attempts == 1 {
			return zero, lastErr
		}
		return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
	}
}

// Wrap applies p.Timeout to every attempt and retries per p.
func Wrap[T any](op Operation[T], p Policy) Operation[T] {
	return WithRetry(WithTimeout(op, p.Timeout), p)
}
