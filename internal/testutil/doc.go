// Package testutil contains helpers used across tests to reduce boilerplate:
// fake agent executables for the CLI-backed threads and brief builders for
// prompt composition. They are not intended for production usage.
package testutil
