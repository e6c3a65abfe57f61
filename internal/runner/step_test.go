package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/petasbytes/pr-agent/internal/runner"
	"github.com/petasbytes/pr-agent/internal/sandbox"
	"github.com/petasbytes/pr-agent/internal/sandbox/sandboxtest"
	"github.com/petasbytes/pr-agent/tools"
)

func newRegistry(repoURL string) *tools.Registry {
	life := sandbox.NewLifecycle(sandboxtest.New(map[string]string{"a.txt": ""}))
	return tools.NewRegistry(&tools.Env{RepoURL: repoURL, Sandbox: life})
}

func toolPair(id, result string) []anthropic.MessageParam {
	return []anthropic.MessageParam{
		anthropic.NewAssistantMessage(anthropic.NewToolUseBlock(id, nil, "list_files")),
		anthropic.NewUserMessage(anthropic.NewToolResultBlock(id, result, false)),
	}
}

func TestRunOneStep_OverBudgetNewest_NoHTTP(t *testing.T) {
	tr := &scriptedTransport{script: []fakeResponse{textReply("x")}}
	r := runner.New(newClientWithTransport(tr), sandboxtest.New(nil), runner.WithTokenBudget(1))
	conv := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("hello"))}

	_, _, err := r.RunOneStep(context.Background(), newRegistry(repo), conv)
	if !errors.Is(err, runner.ErrOverBudget) {
		t.Fatalf("expected over-budget error, got %v", err)
	}
	if tr.count() != 0 {
		t.Fatalf("expected no HTTP call, got %d", tr.count())
	}
}

func TestRunOneStep_KeepsTaskAndNewestPair(t *testing.T) {
	// task: 4+4 = 8; each pair: tool_use (10+4) + result (len+4)
	conv := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("task"))}
	conv = append(conv, toolPair("old", "an older, long tool result that no longer fits")...)
	conv = append(conv, toolPair("new", "short")...)

	tr := &scriptedTransport{script: []fakeResponse{textReply("ok")}}
	r := runner.New(newClientWithTransport(tr), sandboxtest.New(nil), runner.WithTokenBudget(40))

	if _, _, err := r.RunOneStep(context.Background(), newRegistry(repo), conv); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	req := tr.request(t, 0)
	if len(req.Messages) != 3 {
		t.Fatalf("want task + newest pair (3 messages), got %d", len(req.Messages))
	}
	if req.Messages[0].Content[0].Text != "task" {
		t.Fatalf("task prompt not pinned: %+v", req.Messages[0])
	}
	if req.Messages[1].Content[0].Type != "tool_use" || req.Messages[1].Content[0].ID != "new" {
		t.Fatalf("unexpected assistant message %+v", req.Messages[1])
	}
	if req.Messages[2].Content[0].ToolUseID != "new" {
		t.Fatalf("unexpected tool result message %+v", req.Messages[2])
	}
}

func TestRunOneStep_ExecutesToolsAndReturnsResults(t *testing.T) {
	tr := &scriptedTransport{script: []fakeResponse{toolReply("checking", toolCall{"t1", "list_files", `{"path":"."}`})}}
	r := runner.New(newClientWithTransport(tr), sandboxtest.New(nil))
	conv := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("please list files"))}

	msg, results, err := r.RunOneStep(context.Background(), newRegistry(repo), conv)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg == nil || len(msg.Content) != 2 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(results) != 1 || results[0].OfToolResult == nil || results[0].OfToolResult.ToolUseID != "t1" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestRunOneStep_NoToolUse_NoResults(t *testing.T) {
	tr := &scriptedTransport{script: []fakeResponse{textReply("final")}}
	r := runner.New(newClientWithTransport(tr), sandboxtest.New(nil), runner.WithModel("claude-test"), runner.WithMaxTokens(64))
	conv := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("hi"))}

	_, results, err := r.RunOneStep(context.Background(), newRegistry(""), conv)
	if err != nil || len(results) != 0 {
		t.Fatalf("want no results, got %v, %v", results, err)
	}
}
