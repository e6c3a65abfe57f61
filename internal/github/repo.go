// Package github holds the GitHub-specific bits of the agent: repository URL
// parsing, pull request URL matching and a small REST client used by the
// local sandbox provider to open pull requests.
package github

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	repoURLPattern = regexp.MustCompile(`(?i)https?://github\.com/[\w-]+/[\w.-]+`)
	pullURLPattern = regexp.MustCompile(`https://github\.com/[\w-]+/[\w.-]+/pull/\d+`)
	mentionPattern = regexp.MustCompile(`<@[\w]+>`)
)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepoURL accepts https://github.com/<owner>/<repo>[.git][/...].
func ParseRepoURL(raw string) (Repo, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Repo{}, fmt.Errorf("parse repo url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Repo{}, fmt.Errorf("repo url %q: unsupported scheme", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("repo url %q: want https://<host>/<owner>/<repo>", raw)
	}
	return Repo{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, nil
}

// ExtractRepoURL returns the first GitHub repository URL in text with any
// trailing .git removed, or "" when there is none.
func ExtractRepoURL(text string) string {
	m := repoURLPattern.FindString(text)
	return strings.TrimSuffix(m, ".git")
}

// ExtractPrompt strips user mentions and repository URLs from a chat message.
func ExtractPrompt(text string) string {
	text = mentionPattern.ReplaceAllString(text, "")
	text = repoURLPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ExtractPullURL returns the first pull request URL in text, or "".
func ExtractPullURL(text string) string {
	return pullURLPattern.FindString(text)
}
