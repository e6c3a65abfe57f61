package runner_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeResponse struct {
	status int
	body   string
}

// scriptedTransport answers Messages API calls from a script, repeating the
// last entry once the script is exhausted, and records every request body.
type scriptedTransport struct {
	mu        sync.Mutex
	script    []fakeResponse
	requests  [][]byte
	ctxErrors []error
}

func (f *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()

	f.mu.Lock()
	f.requests = append(f.requests, b)
	f.ctxErrors = append(f.ctxErrors, req.Context().Err())
	i := len(f.requests) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	r := f.script[i]
	f.mu.Unlock()

	resp := &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(r.body))),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func (f *scriptedTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *scriptedTransport) request(t *testing.T, i int) sentRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.requests) {
		t.Fatalf("request %d not sent; have %d", i, len(f.requests))
	}
	var rb sentRequest
	if err := json.Unmarshal(f.requests[i], &rb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, f.requests[i])
	}
	return rb
}

func newClientWithTransport(rt http.RoundTripper) *anthropic.Client {
	c := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &c
}

type contentItem struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Content   []contentItem   `json:"content,omitempty"`
}

type sentRequest struct {
	System   []contentItem `json:"system"`
	Tools    []struct {
		Name string `json:"name"`
	} `json:"tools"`
	Messages []struct {
		Role    string        `json:"role"`
		Content []contentItem `json:"content"`
	} `json:"messages"`
}

// toolResults returns the tool_result blocks of the last message sent.
func (r sentRequest) toolResults() []contentItem {
	if len(r.Messages) == 0 {
		return nil
	}
	var out []contentItem
	for _, c := range r.Messages[len(r.Messages)-1].Content {
		if c.Type == "tool_result" {
			out = append(out, c)
		}
	}
	return out
}

func resultText(c contentItem) string {
	var parts []string
	for _, n := range c.Content {
		parts = append(parts, n.Text)
	}
	return strings.Join(parts, "")
}

func textReply(text string) fakeResponse {
	body := fmt.Sprintf(`{"id":"msg_t","type":"message","role":"assistant","model":"claude-sonnet-4-0","stop_reason":"end_turn",
		"content":[{"type":"text","text":%q}],"usage":{"input_tokens":1,"output_tokens":1}}`, text)
	return fakeResponse{status: 200, body: body}
}

type toolCall struct {
	id, name, input string
}

func toolReply(text string, calls ...toolCall) fakeResponse {
	var blocks []string
	if text != "" {
		blocks = append(blocks, fmt.Sprintf(`{"type":"text","text":%q}`, text))
	}
	for _, c := range calls {
		blocks = append(blocks, fmt.Sprintf(`{"type":"tool_use","id":%q,"name":%q,"input":%s}`, c.id, c.name, c.input))
	}
	body := fmt.Sprintf(`{"id":"msg_u","type":"message","role":"assistant","model":"claude-sonnet-4-0","stop_reason":"tool_use",
		"content":[%s],"usage":{"input_tokens":1,"output_tokens":1}}`, strings.Join(blocks, ","))
	return fakeResponse{status: 200, body: body}
}

func errorReply(status int) fakeResponse {
	return fakeResponse{status: status, body: `{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`}
}

// observe turns telemetry on for the test and returns the events file path.
func observe(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGT_OBSERVE_JSON", "1")
	t.Setenv("AGT_ARTIFACTS_DIR", dir)
	return filepath.Join(dir, "events.jsonl")
}

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}
