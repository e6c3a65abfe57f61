// Package sandboxtest provides an in-memory sandbox.Provider for tests.
package sandboxtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/petasbytes/pr-agent/internal/sandbox"
)

// Fake is an in-memory Provider that records every call. Files maps paths
// relative to the sandbox root to their content.
type Fake struct {
	mu sync.Mutex

	Files     map[string]string
	CreateErr error
	StopErr   error
	// PRNumber is used for the URL of the next pull request.
	PRNumber int

	Creates int
	Stops   int
	Calls   []string
	PRs     []sandbox.PullRequestSpec
}

// New returns a Fake seeded with files.
func New(files map[string]string) *Fake {
	if files == nil {
		files = map[string]string{}
	}
	return &Fake{Files: files, PRNumber: 1}
}

var _ sandbox.Provider = (*Fake)(nil)

func (f *Fake) record(op string) {
	f.Calls = append(f.Calls, op)
}

// CallCount returns the number of recorded provider calls.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *Fake) CreateSandbox(_ context.Context, repoURL string) (sandbox.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create")
	if f.CreateErr != nil {
		return sandbox.Handle{}, f.CreateErr
	}
	f.Creates++
	return sandbox.Handle{ID: fmt.Sprintf("sbx-%d", f.Creates), RepoURL: repoURL}, nil
}

func (f *Fake) ReadFile(_ context.Context, _ sandbox.Handle, path string) (sandbox.FileContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("read")
	content, ok := f.Files[path]
	if !ok {
		return sandbox.FileContent{}, fmt.Errorf("file not found: %s", path)
	}
	return sandbox.FileContent{Content: content}, nil
}

func (f *Fake) ListFiles(_ context.Context, _ sandbox.Handle, path string) (sandbox.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	prefix := strings.Trim(path, "/")
	if prefix != "" {
		prefix += "/"
	}
	seen := map[string]struct{}{}
	for p := range f.Files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i+1]
		}
		seen[rest] = struct{}{}
	}
	if len(seen) == 0 && prefix != "" {
		return sandbox.Listing{}, fmt.Errorf("no such directory: %s", path)
	}
	entries := make([]string, 0, len(seen))
	for e := range seen {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	return sandbox.Listing{Entries: entries}, nil
}

// EditFile requires exactly one occurrence of oldStr; a missing file is
// created with newStr.
func (f *Fake) EditFile(_ context.Context, _ sandbox.Handle, path, oldStr, newStr string) (sandbox.EditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("edit")
	content, ok := f.Files[path]
	if !ok {
		f.Files[path] = newStr
		return sandbox.EditResult{Path: path, Output: "Created file " + path}, nil
	}
	switch n := strings.Count(content, oldStr); {
	case oldStr == "" || n == 0:
		return sandbox.EditResult{}, fmt.Errorf("old_str not found in %s", path)
	case n > 1:
		return sandbox.EditResult{}, fmt.Errorf("old_str found %d times in %s; it must match exactly once", n, path)
	}
	f.Files[path] = strings.Replace(content, oldStr, newStr, 1)
	return sandbox.EditResult{Path: path, Output: "OK"}, nil
}

func (f *Fake) CreatePR(_ context.Context, _ sandbox.Handle, repoURL string, spec sandbox.PullRequestSpec) (sandbox.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pr")
	if spec.Title == "" {
		return sandbox.PullRequest{}, errors.New("title is required")
	}
	f.PRs = append(f.PRs, spec)
	n := f.PRNumber
	f.PRNumber++
	return sandbox.PullRequest{
		URL:    fmt.Sprintf("%s/pull/%d", strings.TrimSuffix(repoURL, ".git"), n),
		Number: n,
		Branch: spec.Branch,
	}, nil
}

func (f *Fake) Stop(_ context.Context, _ sandbox.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	f.Stops++
	return f.StopErr
}
