package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/petasbytes/pr-agent/internal/sandbox"
	"github.com/petasbytes/pr-agent/internal/telemetry"
	"github.com/petasbytes/pr-agent/internal/windowing"
	"github.com/petasbytes/pr-agent/tools"
)

// SystemPrompt is sent with every request of a run.
const SystemPrompt = "You are a coding agent working on a remote repository. " +
	"Operate on the repository only through the provided tools. " +
	"Your responses must be concise. " +
	"If you make changes to the codebase, be sure to run the create_pr tool once you are done."

const (
	DefaultMaxSteps    = 10
	DefaultMaxTokens   = 4096
	DefaultTokenBudget = 150_000
)

// ErrOverBudget is returned when the task prompt and the newest message group
// cannot fit the token budget together.
var ErrOverBudget = errors.New("windowing: newest group exceeds token budget; increase budget with headroom or tighten tool caps")

// Outcome is the result of a run.
type Outcome struct {
	// Response is the text of the model's last reply, possibly empty.
	Response string `json:"response"`
	// PullRequestURL is set when create_pr succeeded during the run.
	PullRequestURL string `json:"pullRequestUrl,omitempty"`
}

// Runner runs agent sessions. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	client      *anthropic.Client
	provider    sandbox.Provider
	model       anthropic.Model
	maxSteps    int
	maxTokens   int64
	tokenBudget int
	system      string
	counter     windowing.TokenCounter
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

func WithModel(m anthropic.Model) Option { return func(r *Runner) { r.model = m } }

func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

func WithMaxTokens(n int64) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTokens = n
		}
	}
}

// WithTokenBudget sets the estimated input-token budget of each request window.
func WithTokenBudget(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.tokenBudget = n
		}
	}
}

func WithSystemPrompt(s string) Option { return func(r *Runner) { r.system = s } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// New creates a Runner that provisions sandboxes on provider.
func New(client *anthropic.Client, provider sandbox.Provider, opts ...Option) *Runner {
	r := &Runner{
		client:      client,
		provider:    provider,
		model:       anthropic.ModelClaudeSonnet4_0,
		maxSteps:    DefaultMaxSteps,
		maxTokens:   DefaultMaxTokens,
		tokenBudget: DefaultTokenBudget,
		system:      SystemPrompt,
		counter:     windowing.HeuristicCounter{},
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes one agent run for prompt against repoURL ("" for none).
//
// The run is detached from ctx cancellation: an abandoned caller does not
// abort the current step or the sandbox release. Only model transport
// failures are returned as errors; tool failures are fed back to the model.
func (r *Runner) Run(ctx context.Context, prompt, repoURL string) (Outcome, error) {
	runID := uuid.NewString()
	ctx = telemetry.WithRunID(context.WithoutCancel(ctx), runID)
	logger := r.logger.With("run_id", runID)

	life := sandbox.NewLifecycle(r.provider)
	env := &tools.Env{RepoURL: repoURL, Sandbox: life, Logger: logger}
	reg := tools.NewRegistry(env)

	steps := 0
	reason := "step_budget"
	start := time.Now()
	defer func() {
		if err := life.Release(ctx); err != nil {
			logger.Warn("sandbox release failed", "error", err)
		}
		telemetry.EmitRunFinished(ctx, steps, reason, life.Created())
		logger.Info("run finished",
			"steps", steps,
			"reason", reason,
			"sandboxes", life.Created(),
			"duration", time.Since(start),
		)
	}()

	logger.Info("run started", "has_repo", repoURL != "", "max_steps", r.maxSteps)
	telemetry.EmitRunStarted(ctx, prompt, repoURL != "")

	conv := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))}
	var last string
	for steps < r.maxSteps {
		steps++
		msg, results, err := r.RunOneStep(telemetry.WithStep(ctx, steps), reg, conv)
		if err != nil {
			reason = "model_error"
			return Outcome{}, fmt.Errorf("step %d: %w", steps, err)
		}
		last = textOf(msg)
		conv = append(conv, msg.ToParam())
		if len(results) == 0 {
			reason = "final_answer"
			break
		}
		conv = append(conv, anthropic.NewUserMessage(results...))
	}

	out := Outcome{Response: last}
	if pr, ok := env.PullRequest(); ok {
		out.PullRequestURL = pr.URL
	}
	return out, nil
}

// RunOneStep sends the budgeted window of conv and executes any tool calls in
// the reply, in order. It returns the reply and the tool_result blocks to
// append; no results means the reply is final.
func (r *Runner) RunOneStep(ctx context.Context, reg *tools.Registry, conv []anthropic.MessageParam) (*anthropic.Message, []anthropic.ContentBlockParamUnion, error) {
	window, stats := windowing.PrepareSendWindow(conv, r.tokenBudget, r.counter)

	fields := telemetry.Fields(ctx)
	fields["model"] = string(r.model)
	fields["budget"] = stats.Budget
	fields["total_estimated"] = stats.Total
	fields["included_steps"] = stats.IncludedSteps
	fields["skipped_steps"] = stats.SkippedSteps
	fields["over_budget_newest"] = stats.OverBudgetNewest
	telemetry.Emit("window_prepared", fields)

	// With tool caps the newest group should always fit. If not, treat it as
	// a misconfiguration and fail without calling the model.
	if stats.OverBudgetNewest {
		return nil, nil, ErrOverBudget
	}

	params := anthropic.MessageNewParams{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages:  window,
		Tools:     anthropicTools(reg.Definitions()),
	}
	if r.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.system}}
	}

	msg, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	toolResults := []anthropic.ContentBlockParamUnion{}
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			input := json.RawMessage(v.JSON.Input.Raw())
			toolResults = append(toolResults, r.execTool(ctx, reg, v.ID, v.Name, input))
		}
	}
	return msg, toolResults, nil
}

func anthropicTools(defs []tools.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

func (r *Runner) execTool(ctx context.Context, reg *tools.Registry, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	start := time.Now()
	res := reg.Dispatch(ctx, name, input)

	fields := telemetry.Fields(ctx)
	fields["tool_name"] = name
	fields["duration_ms"] = time.Since(start).Milliseconds()
	fields["input_size"] = len(input)
	fields["output_size"] = len(res.Content)
	fields["error"] = nil
	// Generic marker only; the detailed message goes to the model, not telemetry.
	if res.IsError {
		fields["error"] = "tool error"
	}
	telemetry.Emit("tool_exec", fields)

	return anthropic.NewToolResultBlock(id, res.Content, res.IsError)
}

// textOf joins the text blocks of msg.
func textOf(msg *anthropic.Message) string {
	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "\n")
}
