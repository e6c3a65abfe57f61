package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/petasbytes/pr-agent/internal/safety"
)

// Result is the outcome of one tool call, ready to become a tool_result block.
// Content is always a JSON object.
type Result struct {
	Content string
	IsError bool
}

// Registry is the closed set of tools available to one run.
type Registry struct {
	env  *Env
	defs []ToolDefinition
}

// NewRegistry wires the four sandbox tools to env.
func NewRegistry(env *Env) *Registry {
	return &Registry{
		env: env,
		defs: []ToolDefinition{
			readFileDefinition(env),
			listFilesDefinition(env),
			editFileDefinition(env),
			createPRDefinition(env),
		},
	}
}

// Definitions returns the tool definitions in a stable order.
func (r *Registry) Definitions() []ToolDefinition {
	return r.defs
}

// Dispatch runs the named tool. Unknown names, invalid input, handler errors
// and panics all come back as error results; Dispatch itself never fails.
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage) (res Result) {
	var def *ToolDefinition
	for i := range r.defs {
		if r.defs[i].Name == name {
			def = &r.defs[i]
			break
		}
	}
	if def == nil {
		return errorResult(fmt.Errorf("unknown tool: %s", name))
	}

	defer func() {
		if p := recover(); p != nil {
			r.env.logger().Error("tool panicked", "tool", name, "panic", p, "stack", string(debug.Stack()))
			res = errorResult(fmt.Errorf("tool %s failed unexpectedly", name))
		}
	}()

	payload, err := def.Function(ctx, input)
	if err != nil {
		return errorResult(err)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Errorf("encode %s result: %w", name, err))
	}
	return Result{Content: string(b)}
}

// pathError is a tool failure reported together with the path it concerns.
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string { return e.err.Error() }
func (e *pathError) Unwrap() error { return e.err }

func withPath(path string, err error) error {
	return &pathError{path: path, err: err}
}

func errMissingRepo(verb string) error {
	return fmt.Errorf("A repoUrl is required to %s.", verb) //nolint:staticcheck // sentence shown to the model
}

func errorResult(err error) Result {
	body := map[string]any{"error": err.Error()}
	var te safety.ToolError
	if errors.As(err, &te) {
		body["error"] = te.Message
		body["code"] = te.Code
	}
	var pe *pathError
	if errors.As(err, &pe) {
		body["path"] = pe.path
	}
	b, _ := json.Marshal(body)
	return Result{Content: string(b), IsError: true}
}
