package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx reply from the sandbox service. Message is the
// service's own error text so provider failures reach the model verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sandbox service returned %d", e.StatusCode)
	}
	return e.Message
}

// IsNotFound reports whether err is a 404 from the sandbox service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the remote sandbox service over its JSON REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the service at baseURL authenticating with token.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ Provider = (*Client)(nil)

func (c *Client) CreateSandbox(ctx context.Context, repoURL string) (Handle, error) {
	var h Handle
	err := c.do(ctx, http.MethodPost, "/v1/sandboxes", map[string]string{"repoUrl": repoURL}, &h)
	if err != nil {
		return Handle{}, err
	}
	if h.ID == "" {
		return Handle{}, errors.New("sandbox service returned an empty sandbox id")
	}
	if h.RepoURL == "" {
		h.RepoURL = repoURL
	}
	return h, nil
}

func (c *Client) ReadFile(ctx context.Context, h Handle, path string) (FileContent, error) {
	var fc FileContent
	err := c.do(ctx, http.MethodGet, sandboxPath(h, "files")+"?path="+url.QueryEscape(path), nil, &fc)
	return fc, err
}

func (c *Client) ListFiles(ctx context.Context, h Handle, path string) (Listing, error) {
	p := sandboxPath(h, "tree")
	if path != "" {
		p += "?path=" + url.QueryEscape(path)
	}
	var l Listing
	err := c.do(ctx, http.MethodGet, p, nil, &l)
	return l, err
}

func (c *Client) EditFile(ctx context.Context, h Handle, path, oldStr, newStr string) (EditResult, error) {
	body := map[string]string{"path": path, "old_str": oldStr, "new_str": newStr}
	var res EditResult
	err := c.do(ctx, http.MethodPost, sandboxPath(h, "edits"), body, &res)
	return res, err
}

func (c *Client) CreatePR(ctx context.Context, h Handle, repoURL string, spec PullRequestSpec) (PullRequest, error) {
	body := struct {
		RepoURL string `json:"repoUrl"`
		PullRequestSpec
	}{RepoURL: repoURL, PullRequestSpec: spec}
	var pr PullRequest
	err := c.do(ctx, http.MethodPost, sandboxPath(h, "pulls"), body, &pr)
	return pr, err
}

// Stop deletes the sandbox. An already-gone sandbox counts as stopped.
func (c *Client) Stop(ctx context.Context, h Handle) error {
	err := c.do(ctx, http.MethodDelete, "/v1/sandboxes/"+url.PathEscape(h.ID), nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

func sandboxPath(h Handle, op string) string {
	return "/v1/sandboxes/" + url.PathEscape(h.ID) + "/" + op
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("sandbox marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("sandbox request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sandbox %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sandbox decode %s: %w", path, err)
	}
	return nil
}
