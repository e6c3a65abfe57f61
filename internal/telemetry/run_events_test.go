package telemetry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/pr-agent/internal/telemetry"
)

func lastEvent(t *testing.T, dir string) map[string]any {
	t.Helper()
	lines := readLines(t, dir)
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return m
}

func TestEmitRunStarted_FeaturesWithoutText(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGT_ARTIFACTS_DIR", dir)
	t.Setenv("AGT_OBSERVE_JSON", "1")

	ctx := telemetry.WithRunID(context.Background(), "run-xyz")
	prompt := "h\u00e9ll\u00f6 \u4e16\u754c" // bytes=14, runes=8, words=2, lines=1
	telemetry.EmitRunStarted(ctx, prompt, true)

	m := lastEvent(t, dir)
	if m["event"] != "run_started" || m["run_id"] != "run-xyz" || m["has_repo"] != true {
		t.Fatalf("unexpected event: %#v", m)
	}
	p := m["prompt"].(map[string]any)
	if p["bytes"] != float64(14) || p["runes"] != float64(8) || p["words"] != float64(2) || p["lines"] != float64(1) {
		t.Fatalf("feature mismatch: %#v", p)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "\u4e16\u754c") {
		t.Fatal("raw prompt text leaked into events.jsonl")
	}
}

func TestEmitRunFinished(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGT_ARTIFACTS_DIR", dir)
	t.Setenv("AGT_OBSERVE_JSON", "1")

	ctx := telemetry.WithRunID(context.Background(), "run-1")
	telemetry.EmitRunFinished(ctx, 3, "final_answer", 1)

	m := lastEvent(t, dir)
	if m["event"] != "run_finished" || m["steps"] != float64(3) || m["reason"] != "final_answer" || m["sandboxes"] != float64(1) {
		t.Fatalf("unexpected event: %#v", m)
	}
}
