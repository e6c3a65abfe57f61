package tools

import (
	"context"
	"encoding/json"
	"strings"
)

type ReadFileInput struct {
	Path   string `json:"path" validate:"required" jsonschema_description:"The relative path of a file in the working directory."`
	Offset int    `json:"offset,omitempty" validate:"gte=0" jsonschema_description:"Line offset (0-based) to start reading from."`
	Limit  int    `json:"limit,omitempty" validate:"gte=0" jsonschema_description:"Maximum lines to return from offset (default: to the end of the file)."`
}

// ReadFileOutput is the success payload of read_file.
type ReadFileOutput struct {
	Path   string `json:"path"`
	Output string `json:"output"`
}

const truncationSentinel = "-- truncated; use offset/limit to fetch more --\n"

// overallRuneCap bounds a single read so one file cannot exhaust the window.
const overallRuneCap = 100_000

func readFileDefinition(env *Env) ToolDefinition {
	return ToolDefinition{
		Name:        "read_file",
		Description: "Read the contents of a given relative file path. Use this when you want to see what's inside a file. Do not use this with directory names.",
		InputSchema: GenerateSchema[ReadFileInput](),
		Function: func(ctx context.Context, input json.RawMessage) (any, error) {
			return readFile(ctx, env, input)
		},
	}
}

func readFile(ctx context.Context, env *Env, input json.RawMessage) (any, error) {
	if env.RepoURL == "" {
		return nil, errMissingRepo("read files")
	}
	in, err := decodeInput[ReadFileInput](input)
	if err != nil {
		return nil, err
	}

	h, err := env.Sandbox.Ensure(ctx, env.RepoURL)
	if err != nil {
		return nil, withPath(in.Path, err)
	}
	fc, err := env.Sandbox.Provider().ReadFile(ctx, h, in.Path)
	if err != nil {
		env.logger().Error("read file failed", "path", in.Path, "error", err)
		return nil, withPath(in.Path, err)
	}
	return ReadFileOutput{Path: in.Path, Output: paginate(fc.Content, in.Offset, in.Limit)}, nil
}

// Helper: clamp a string to at most n runes
func clampRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// paginate returns the whole file unless the caller asks for a page:
//   - offset: 0-based starting line (negatives clamped to 0)
//   - limit: number of lines to return (<= 0 reads to the end)
//
// The result is clamped to overallRuneCap. If not all content is returned, a
// trailing sentinel signals pagination.
func paginate(content string, offset, limit int) string {
	if offset <= 0 && limit <= 0 {
		return clampWhole(content)
	}
	if offset < 0 {
		offset = 0
	}

	lines := strings.Split(content, "\n")
	if offset > len(lines) {
		offset = len(lines)
	}
	end := len(lines)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := strings.Join(lines[offset:end], "\n")
	truncated := end < len(lines)
	if clamped, did := clampRunes(out, overallRuneCap); did {
		out = clamped
		truncated = true
	}
	if truncated {
		out = withSentinel(out)
	}
	return out
}

func clampWhole(content string) string {
	if clamped, did := clampRunes(content, overallRuneCap); did {
		return withSentinel(clamped)
	}
	return content
}

func withSentinel(s string) string {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s + truncationSentinel
}
