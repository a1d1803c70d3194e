// Package core provides the contracts shared by the two brainmesh execution
// units and their callers:
//
//   - Role and Request, the input of one invocation
//   - Asker and Actor, the read-only and read-write entry points
//   - Atom (stateless single-turn inference) and Repl (agentic execution)
//   - Invocation, the per-call scope carrying id, logger and attempt count
//   - Re-exported error types and sentinels of the leaf packages
//
// Concrete units live in the atom and repl packages; the root brainmesh
// package adds typed generic wrappers.
package core
