// Package resilience bounds and retries agentic calls.
//
// An Operation is wrapped with a per-attempt timeout and a retry budget:
//
//	op := resilience.Wrap(func(ctx context.Context) (string, error) {
//		return runThread(ctx)
//	}, resilience.DefaultPolicy())
//	out, err := op(ctx)
//
// Only timeouts and transient backend failures are retried. Read-write calls
// run once unless the policy opts in with RetryWrites.
package resilience
