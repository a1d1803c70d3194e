// Package thread defines the execution context of an agentic call: an
// ephemeral, capability-bound conversation with a coding agent.
//
// A Starter opens one Thread per attempt. The thread runs exactly one turn
// and is closed on every exit path:
//
//	th, err := starter.Start(ctx, thread.Options{Capability: thread.ReadOnly})
//	if err != nil {
//		return err
//	}
//	defer th.Close()
//	turn, err := th.Run(ctx, prompt, thread.RunOptions{OutputSchema: js})
//
// Backends live in the codex and claude subpackages; MockStarter serves tests.
package thread
