// Package sandbox defines the contract with the remote workspace provider and
// owns the per-run sandbox lifecycle.
//
// Invariants:
//   - a Lifecycle creates at most one sandbox, lazily, on first Ensure.
//   - Release stops that sandbox at most once and is safe to call on every
//     exit path.
//   - a Lifecycle is owned by exactly one run and is not safe for concurrent use.
package sandbox
