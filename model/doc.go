// Package model defines the provider-agnostic abstraction used by Atoms for
// single-turn, schema-constrained completions.
//
// Core goals:
//   - One blocking Generate call per invocation, no conversation state
//   - Output constraints expressed once (schema.Constraint) and mapped to each
//     vendor's native mechanism by the provider packages
//   - Uniform BackendError for transport and API failures
//   - Lightweight mocking for tests (MockModel)
//
// Providers (openai, anthropic, gemini) implement Model and expose a Factory
// so a fresh client can be built per invocation from a resolved credential.
package model
