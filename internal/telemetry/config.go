package telemetry

import (
	"os"
)

// ObserveEnabled reports whether JSONL event emission is on (AGT_OBSERVE_JSON=1).
// Read on every call.
func ObserveEnabled() bool {
	return os.Getenv("AGT_OBSERVE_JSON") == "1"
}

// ArtifactsDir is where events.jsonl is written. Defaults to ".agent".
func ArtifactsDir() string {
	if d := os.Getenv("AGT_ARTIFACTS_DIR"); d != "" {
		return d
	}
	return ".agent"
}
