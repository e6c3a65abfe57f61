// Package windowing prepares the budgeted message window sent on each model
// round-trip of a run. The task prompt is pinned; each step (assistant
// tool_use plus the user tool_result reply) is kept or evicted whole.
package windowing
