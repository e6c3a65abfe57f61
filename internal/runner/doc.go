// Package runner drives one agent run: it exchanges messages with the
// Anthropic Messages API, dispatches tool calls through the tool registry and
// owns the run's sandbox lifecycle.
//
// Invariants:
//   - tool_use and the corresponding tool_result are kept adjacent within a turn.
//   - At most MaxSteps model round-trips per run.
//   - The sandbox is released exactly once on every exit path, even when the
//     caller's context is cancelled.
//
// Flow:
//
//	user(prompt) -> assistant(tool_use) -> user(tool_result) -> ... -> assistant(text)
package runner
