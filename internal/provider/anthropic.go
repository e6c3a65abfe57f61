// Package provider builds the model client used by the runner.
package provider

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/pr-agent/internal/config"
)

// DefaultModel is used when configuration leaves the model empty.
const DefaultModel = anthropic.ModelClaudeSonnet4_0

// NewAnthropicClient returns a client configured from cfg. Retries and the
// per-request timeout are handled by the SDK. Extra options are applied last.
func NewAnthropicClient(cfg config.Anthropic, extra ...option.RequestOption) *anthropic.Client {
	opts := []option.RequestOption{
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	opts = append(opts, extra...)

	c := anthropic.NewClient(opts...)
	return &c
}

// Model returns the configured model or DefaultModel.
func Model(cfg config.Anthropic) anthropic.Model {
	if cfg.Model == "" {
		return DefaultModel
	}
	return anthropic.Model(cfg.Model)
}
