// Package repl implements agentic execution units.
//
// A Repl runs one instruction inside an ephemeral thread provided by a
// thread.Starter. Ask binds the thread read-only and Act binds it read-write;
// the binding is fixed by the entry point and cannot be overridden.
//
// Every attempt opens its own thread and closes it before returning,
// whatever the outcome. Attempts are bounded by the policy's timeout and
// retried on transient failures. Read-write calls run once unless the policy
// sets RetryWrites. Output validation happens after the retry loop and is
// never retried.
package repl
