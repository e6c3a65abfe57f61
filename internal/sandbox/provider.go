package sandbox

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Handle identifies one provisioned sandbox.
type Handle struct {
	ID      string `json:"id"`
	RepoURL string `json:"repoUrl"`
}

// FileContent is the full content of one file.
type FileContent struct {
	Content string `json:"content"`
}

// Listing is a non-recursive directory listing. Directories end in "/".
type Listing struct {
	Entries []string `json:"entries"`
}

// EditResult is returned as-is to the model after a successful edit.
type EditResult struct {
	Path   string `json:"path"`
	Output string `json:"output"`
}

// PullRequestSpec describes the pull request the model asked for.
type PullRequestSpec struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Branch string `json:"branch,omitempty"`
}

// PullRequest is the provider's view of an opened pull request.
type PullRequest struct {
	URL    string `json:"url,omitempty"`
	Number int    `json:"number,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Provider is the remote workspace service. All operations are bound to a
// Handle returned by CreateSandbox. Stop must be idempotent.
type Provider interface {
	CreateSandbox(ctx context.Context, repoURL string) (Handle, error)
	ReadFile(ctx context.Context, h Handle, path string) (FileContent, error)
	// ListFiles lists path; "" lists the working-directory root.
	ListFiles(ctx context.Context, h Handle, path string) (Listing, error)
	EditFile(ctx context.Context, h Handle, path, oldStr, newStr string) (EditResult, error)
	CreatePR(ctx context.Context, h Handle, repoURL string, spec PullRequestSpec) (PullRequest, error)
	Stop(ctx context.Context, h Handle) error
}

// BranchPrefix prefixes generated branch names.
const BranchPrefix = "agent/"

// DefaultBranch returns a fresh branch name of the form agent/<8 hex chars>.
func DefaultBranch() string {
	return BranchPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
