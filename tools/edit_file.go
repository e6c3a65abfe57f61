package tools

import (
	"context"
	"encoding/json"
	"errors"
)

type EditFileInput struct {
	Path   string `json:"path" validate:"required" jsonschema_description:"The path to the file"`
	OldStr string `json:"old_str" jsonschema_description:"Text to search for - must match exactly and must only have one match exactly"`
	NewStr string `json:"new_str" jsonschema_description:"Text to replace old_str with"`
}

func editFileDefinition(env *Env) ToolDefinition {
	return ToolDefinition{
		Name: "edit_file",
		Description: `Make edits to a text file. Replaces 'old_str' with 'new_str' in the given file.

'old_str' and 'new_str' MUST be different from each other.

If the file specified with path doesn't exist, it will be created.
`,
		InputSchema: GenerateSchema[EditFileInput](),
		Function: func(ctx context.Context, input json.RawMessage) (any, error) {
			return editFile(ctx, env, input)
		},
	}
}

func editFile(ctx context.Context, env *Env, input json.RawMessage) (any, error) {
	if env.RepoURL == "" {
		return nil, errMissingRepo("edit files")
	}
	in, err := decodeInput[EditFileInput](input)
	if err != nil {
		return nil, err
	}
	if in.OldStr == in.NewStr {
		return nil, errors.New("old_str and new_str must be different")
	}

	h, err := env.Sandbox.Ensure(ctx, env.RepoURL)
	if err != nil {
		return nil, err
	}
	res, err := env.Sandbox.Provider().EditFile(ctx, h, in.Path, in.OldStr, in.NewStr)
	if err != nil {
		env.logger().Error("edit file failed", "path", in.Path, "error", err)
		return nil, err
	}
	return res, nil
}
