package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/petasbytes/pr-agent/internal/sandbox"
	"github.com/petasbytes/pr-agent/internal/sandbox/sandboxtest"
	"github.com/petasbytes/pr-agent/tools"
)

const repo = "https://github.com/acme/widgets"

type harness struct {
	fake *sandboxtest.Fake
	life *sandbox.Lifecycle
	env  *tools.Env
	reg  *tools.Registry
}

func newHarness(repoURL string, files map[string]string) *harness {
	fake := sandboxtest.New(files)
	life := sandbox.NewLifecycle(fake)
	env := &tools.Env{RepoURL: repoURL, Sandbox: life}
	return &harness{fake: fake, life: life, env: env, reg: tools.NewRegistry(env)}
}

// call dispatches a tool and decodes its JSON object result.
func (h *harness) call(t *testing.T, name, input string) (map[string]any, bool) {
	t.Helper()
	res := h.reg.Dispatch(context.Background(), name, json.RawMessage(input))
	var out map[string]any
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("%s: result is not a JSON object: %v; raw=%q", name, err, res.Content)
	}
	return out, res.IsError
}
