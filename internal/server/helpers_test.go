package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/petasbytes/pr-agent/internal/runner"
)

type agentCall struct {
	Prompt  string
	RepoURL string
}

type fakeAgent struct {
	mu    sync.Mutex
	calls []agentCall
	out   runner.Outcome
	err   error
}

func (f *fakeAgent) Run(_ context.Context, prompt, repoURL string) (runner.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, agentCall{Prompt: prompt, RepoURL: repoURL})
	return f.out, f.err
}

func (f *fakeAgent) Calls() []agentCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]agentCall(nil), f.calls...)
}

// outbound records JSON bodies posted to a fake Slack or Discord API.
type outbound struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
	auth   []string
	srv    *httptest.Server
}

func newOutbound(t *testing.T, response string) *outbound {
	t.Helper()
	o := &outbound{}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		o.mu.Lock()
		o.paths = append(o.paths, r.URL.Path)
		o.bodies = append(o.bodies, m)
		o.auth = append(o.auth, r.Header.Get("Authorization"))
		o.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(o.srv.Close)
	return o
}

func (o *outbound) texts(field string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, b := range o.bodies {
		s, _ := b[field].(string)
		out = append(out, s)
	}
	return out
}

func (o *outbound) Paths() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.paths...)
}

func (o *outbound) Auth() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.auth...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}
