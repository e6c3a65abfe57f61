package telemetry

import (
	"context"

	"github.com/petasbytes/pr-agent/internal/metrics"
)

// EmitRunStarted records the start of a run with local features of the prompt.
// The prompt text itself never reaches the events file.
func EmitRunStarted(ctx context.Context, prompt string, hasRepo bool) {
	if !ObserveEnabled() {
		return
	}
	f := Fields(ctx)
	f["has_repo"] = hasRepo
	f["features_version"] = "1"
	f["prompt"] = metrics.CountFeatures(prompt).Fields()
	Emit("run_started", f)
}

// EmitRunFinished records how a run ended. reason is one of "final_answer",
// "step_budget" or "model_error".
func EmitRunFinished(ctx context.Context, steps int, reason string, sandboxes int) {
	f := Fields(ctx)
	f["steps"] = steps
	f["reason"] = reason
	f["sandboxes"] = sandboxes
	Emit("run_finished", f)
}
