// Package local implements sandbox.Provider on the local filesystem: each
// sandbox is a shallow git clone in a temporary directory, file operations go
// through fsops path policy, and pull requests are pushed with the git CLI and
// opened through the GitHub REST API.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/petasbytes/pr-agent/internal/fsops"
	"github.com/petasbytes/pr-agent/internal/github"
	"github.com/petasbytes/pr-agent/internal/sandbox"
)

const (
	commitAuthorName  = "pr-agent"
	commitAuthorEmail = "pr-agent@users.noreply.github.com"
)

// Config configures a local Provider.
type Config struct {
	// WorkDir holds the checkouts; empty selects os.TempDir().
	WorkDir      string
	GitHubToken  string
	GitHubAPIURL string
	// GitConcurrency bounds concurrent git commands process-wide.
	GitConcurrency int
}

// Option customises a Provider.
type Option func(*Provider)

// WithGitRunner replaces the git CLI, mainly for tests.
func WithGitRunner(g GitRunner) Option {
	return func(p *Provider) { p.git = g }
}

// WithLogger sets the provider logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

type box struct {
	dir  string // temp parent, removed on Stop
	root *fsops.Root
	repo github.Repo
}

// Provider is a sandbox.Provider backed by local git checkouts.
type Provider struct {
	workDir string
	token   string
	gh      *github.Client
	pool    *Pool
	git     GitRunner
	logger  *slog.Logger

	mu    sync.Mutex
	boxes map[string]*box
}

var _ sandbox.Provider = (*Provider)(nil)

// New creates a local Provider.
func New(cfg Config, opts ...Option) *Provider {
	p := &Provider{
		workDir: cfg.WorkDir,
		token:   cfg.GitHubToken,
		gh:      github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken),
		pool:    NewPool(cfg.GitConcurrency),
		git:     execGit,
		logger:  slog.Default(),
		boxes:   make(map[string]*box),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Provider) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	var out string
	err := p.pool.Run(ctx, func() error {
		var err error
		out, err = p.git(ctx, dir, args...)
		return err
	})
	if err != nil {
		return "", errors.New(redact(err.Error(), p.token))
	}
	return out, nil
}

func (p *Provider) lookup(h sandbox.Handle) (*box, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.boxes[h.ID]
	if !ok {
		return nil, fmt.Errorf("sandbox %s not found", h.ID)
	}
	return b, nil
}

func (p *Provider) CreateSandbox(ctx context.Context, repoURL string) (sandbox.Handle, error) {
	repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return sandbox.Handle{}, err
	}
	cloneURL, err := authURL(repoURL, p.token)
	if err != nil {
		return sandbox.Handle{}, err
	}

	dir, err := os.MkdirTemp(p.workDir, "pr-agent-")
	if err != nil {
		return sandbox.Handle{}, fmt.Errorf("create work dir: %w", err)
	}
	checkout := filepath.Join(dir, "repo")
	if _, err := p.runGit(ctx, dir, "clone", "--depth", "1", cloneURL, checkout); err != nil {
		_ = os.RemoveAll(dir)
		return sandbox.Handle{}, err
	}

	root, err := fsops.NewRoot(checkout, "")
	if err != nil {
		_ = os.RemoveAll(dir)
		return sandbox.Handle{}, err
	}

	id := uuid.NewString()
	p.mu.Lock()
	p.boxes[id] = &box{dir: dir, root: root, repo: repo}
	p.mu.Unlock()

	p.logger.Info("sandbox created", "sandbox_id", id, "repo", repo.String())
	return sandbox.Handle{ID: id, RepoURL: repoURL}, nil
}

func (p *Provider) ReadFile(_ context.Context, h sandbox.Handle, path string) (sandbox.FileContent, error) {
	b, err := p.lookup(h)
	if err != nil {
		return sandbox.FileContent{}, err
	}
	content, err := b.root.ReadFile(path)
	if err != nil {
		return sandbox.FileContent{}, fsError(err, path)
	}
	return sandbox.FileContent{Content: content}, nil
}

func (p *Provider) ListFiles(_ context.Context, h sandbox.Handle, path string) (sandbox.Listing, error) {
	b, err := p.lookup(h)
	if err != nil {
		return sandbox.Listing{}, err
	}
	entries, err := b.root.ListFiles(path)
	if err != nil {
		return sandbox.Listing{}, fsError(err, path)
	}
	return sandbox.Listing{Entries: entries}, nil
}

// EditFile replaces the single occurrence of oldStr with newStr. A missing
// file is created with newStr as its content.
func (p *Provider) EditFile(_ context.Context, h sandbox.Handle, path, oldStr, newStr string) (sandbox.EditResult, error) {
	b, err := p.lookup(h)
	if err != nil {
		return sandbox.EditResult{}, err
	}

	exists, err := b.root.Exists(path)
	if err != nil {
		return sandbox.EditResult{}, fsError(err, path)
	}
	if !exists {
		if err := b.root.WriteFile(path, newStr); err != nil {
			return sandbox.EditResult{}, fsError(err, path)
		}
		return sandbox.EditResult{Path: path, Output: "Created file " + path}, nil
	}

	content, err := b.root.ReadFile(path)
	if err != nil {
		return sandbox.EditResult{}, fsError(err, path)
	}
	if oldStr == "" {
		return sandbox.EditResult{}, fmt.Errorf("old_str must not be empty when editing existing file %s", path)
	}
	switch n := strings.Count(content, oldStr); {
	case n == 0:
		return sandbox.EditResult{}, fmt.Errorf("old_str not found in %s", path)
	case n > 1:
		return sandbox.EditResult{}, fmt.Errorf("old_str matches %d times in %s; provide more surrounding context", n, path)
	}
	if err := b.root.WriteFile(path, strings.Replace(content, oldStr, newStr, 1)); err != nil {
		return sandbox.EditResult{}, fsError(err, path)
	}
	return sandbox.EditResult{Path: path, Output: "OK"}, nil
}

// CreatePR commits every change on a new branch, pushes it and opens a pull
// request against the branch the checkout started on.
func (p *Provider) CreatePR(ctx context.Context, h sandbox.Handle, _ string, spec sandbox.PullRequestSpec) (sandbox.PullRequest, error) {
	b, err := p.lookup(h)
	if err != nil {
		return sandbox.PullRequest{}, err
	}
	dir := b.root.Dir()
	branch := spec.Branch
	if branch == "" {
		branch = sandbox.DefaultBranch()
	}

	base, err := p.runGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return sandbox.PullRequest{}, err
	}
	// Detached checkouts report HEAD; ask GitHub for the base instead.
	if base == "" || base == "HEAD" {
		if base, err = p.gh.DefaultBranch(ctx, b.repo); err != nil {
			return sandbox.PullRequest{}, err
		}
	}
	status, err := p.runGit(ctx, dir, "status", "--porcelain")
	if err != nil {
		return sandbox.PullRequest{}, err
	}
	if status == "" {
		return sandbox.PullRequest{}, errors.New("no changes to commit")
	}

	steps := [][]string{
		{"checkout", "-b", branch},
		{"add", "-A"},
		{"-c", "user.name=" + commitAuthorName, "-c", "user.email=" + commitAuthorEmail, "commit", "-m", spec.Title},
		{"push", "origin", branch},
	}
	for _, args := range steps {
		if _, err := p.runGit(ctx, dir, args...); err != nil {
			return sandbox.PullRequest{}, err
		}
	}

	pr, err := p.gh.CreatePullRequest(ctx, b.repo, github.NewPullRequest{
		Title: spec.Title,
		Body:  spec.Body,
		Head:  branch,
		Base:  base,
	})
	if err != nil {
		return sandbox.PullRequest{}, err
	}
	p.logger.Info("pull request opened", "sandbox_id", h.ID, "url", pr.HTMLURL)
	return sandbox.PullRequest{URL: pr.HTMLURL, Number: pr.Number, Branch: branch}, nil
}

// Stop removes the checkout. Unknown handles are treated as already stopped.
func (p *Provider) Stop(_ context.Context, h sandbox.Handle) error {
	p.mu.Lock()
	b, ok := p.boxes[h.ID]
	delete(p.boxes, h.ID)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("remove sandbox %s: %w", h.ID, err)
	}
	p.logger.Info("sandbox stopped", "sandbox_id", h.ID)
	return nil
}

// fsError hides absolute sandbox paths from messages shown to the model.
func fsError(err error, path string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file not found: %s", path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("permission denied: %s", path)
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s %s: %v", pe.Op, path, pe.Err)
	}
	return err
}
