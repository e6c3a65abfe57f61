// Package tools defines the closed set of tools the model may call and the
// registry that dispatches them.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Sandbox tools: read_file, list_files (non-recursive), edit_file, create_pr.
//   - Registry.Dispatch: name lookup, input validation and error containment.
//
// Invariants:
//   - Every result is a JSON object; failures are {"error": ...} with is_error set.
//   - No tool error, provider error or panic escapes Dispatch.
//   - No sandbox is created for a run without a repository URL.
package tools
