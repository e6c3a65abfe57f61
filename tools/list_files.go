package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/petasbytes/pr-agent/internal/safety"
)

type ListFilesInput struct {
	Path *string `json:"path,omitempty" jsonschema_description:"Optional relative path to list files from. Defaults to current directory if not provided."`
}

// ListFilesOutput is the success payload of list_files.
type ListFilesOutput struct {
	Path   string   `json:"path"`
	Output []string `json:"output"`
}

func listFilesDefinition(env *Env) ToolDefinition {
	return ToolDefinition{
		Name:        "list_files",
		Description: "List files and directories at a given path. If no path is provided, lists files in the current directory.",
		InputSchema: GenerateSchema[ListFilesInput](),
		Function: func(ctx context.Context, input json.RawMessage) (any, error) {
			return listFiles(ctx, env, input)
		},
	}
}

func listFiles(ctx context.Context, env *Env, input json.RawMessage) (any, error) {
	if env.RepoURL == "" {
		return nil, errMissingRepo("list files")
	}
	in, err := decodeInput[ListFilesInput](input)
	if err != nil {
		return nil, err
	}

	target := ""
	if in.Path != nil {
		target = strings.TrimSpace(*in.Path)
	}
	if err := safety.CheckListPath(target); err != nil {
		return nil, err
	}

	h, err := env.Sandbox.Ensure(ctx, env.RepoURL)
	if err != nil {
		return nil, err
	}
	listing, err := env.Sandbox.Provider().ListFiles(ctx, h, target)
	if err != nil {
		env.logger().Error("list files failed", "path", target, "error", err)
		return nil, err
	}

	shown := target
	if shown == "" {
		shown = "."
	}
	entries := listing.Entries
	if entries == nil {
		entries = []string{}
	}
	return ListFilesOutput{Path: shown, Output: entries}, nil
}
