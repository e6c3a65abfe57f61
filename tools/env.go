package tools

import (
	"log/slog"
	"sync"

	"github.com/petasbytes/pr-agent/internal/sandbox"
)

// Env is the per-run state shared by the tools of one run.
type Env struct {
	// RepoURL is the target repository; "" means none was given.
	RepoURL string
	Sandbox *sandbox.Lifecycle
	Logger  *slog.Logger

	mu sync.Mutex
	pr *sandbox.PullRequest
}

// PullRequest returns the last pull request opened during the run.
func (e *Env) PullRequest() (sandbox.PullRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pr == nil {
		return sandbox.PullRequest{}, false
	}
	return *e.pr, true
}

func (e *Env) setPullRequest(pr sandbox.PullRequest) {
	e.mu.Lock()
	e.pr = &pr
	e.mu.Unlock()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
