// Package reply turns run outcomes into chat messages.
package reply

import (
	"github.com/petasbytes/pr-agent/internal/github"
	"github.com/petasbytes/pr-agent/internal/runner"
)

// Chat texts shared by the Slack and Discord surfaces.
const (
	Failure        = "Something went wrong. Please try again."
	DefaultSuccess = "Changes have been made."
)

// PullURL returns the pull request URL for out: the structured URL when the
// run opened one, otherwise the first PR link in the response text.
func PullURL(out runner.Outcome) string {
	if out.PullRequestURL != "" {
		return out.PullRequestURL
	}
	return github.ExtractPullURL(out.Response)
}

// Success formats a completed run.
func Success(out runner.Outcome) string {
	if u := PullURL(out); u != "" {
		return "Done! Here's your PR: " + u
	}
	if out.Response != "" {
		return "Done! " + out.Response
	}
	return "Done! " + DefaultSuccess
}

// Working is the acknowledgement posted before a run starts.
func Working(repoURL string) string {
	return "Working on it... I'll create a PR for `" + repoURL + "`"
}
