package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/petasbytes/pr-agent/internal/sandbox"
)

type CreatePRInput struct {
	Title  string  `json:"title" validate:"required" jsonschema_description:"The title of the pull request"`
	Body   string  `json:"body" jsonschema_description:"The body/description of the pull request"`
	Branch *string `json:"branch,omitempty" jsonschema_description:"The name of the branch to create (defaults to a generated name)"`
}

func createPRDefinition(env *Env) ToolDefinition {
	return ToolDefinition{
		Name:        "create_pr",
		Description: "Create a pull request with the current changes. This will add all files, commit changes, push to a new branch, and create a PR using GitHub's REST API. Use this as the final step when making changes.",
		InputSchema: GenerateSchema[CreatePRInput](),
		Function: func(ctx context.Context, input json.RawMessage) (any, error) {
			return createPR(ctx, env, input)
		},
	}
}

func createPR(ctx context.Context, env *Env, input json.RawMessage) (any, error) {
	if env.RepoURL == "" {
		return nil, errMissingRepo("create pull requests")
	}
	in, err := decodeInput[CreatePRInput](input)
	if err != nil {
		return nil, err
	}

	branch := ""
	if in.Branch != nil {
		branch = strings.TrimSpace(*in.Branch)
	}
	if branch == "" {
		branch = sandbox.DefaultBranch()
	}

	h, err := env.Sandbox.Ensure(ctx, env.RepoURL)
	if err != nil {
		return nil, err
	}
	pr, err := env.Sandbox.Provider().CreatePR(ctx, h, env.RepoURL, sandbox.PullRequestSpec{
		Title:  in.Title,
		Body:   in.Body,
		Branch: branch,
	})
	if err != nil {
		env.logger().Error("create pull request failed", "branch", branch, "error", err)
		return nil, err
	}
	if pr.Branch == "" {
		pr.Branch = branch
	}
	env.setPullRequest(pr)
	return pr, nil
}
