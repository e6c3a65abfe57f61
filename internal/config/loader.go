package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "pr-agent.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "PR_AGENT_ADDR")
	setDuration(&cfg.Server.ShutdownTimeout, "PR_AGENT_SHUTDOWN_TIMEOUT")

	setString(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.BaseURL, "ANTHROPIC_BASE_URL")
	setString(&cfg.Anthropic.Model, "PR_AGENT_MODEL")
	setInt64(&cfg.Anthropic.MaxTokens, "PR_AGENT_MAX_TOKENS")
	setInt(&cfg.Anthropic.MaxRetries, "PR_AGENT_MAX_RETRIES")
	setDuration(&cfg.Anthropic.RequestTimeout, "PR_AGENT_REQUEST_TIMEOUT")

	setInt(&cfg.Agent.MaxSteps, "PR_AGENT_MAX_STEPS")
	setInt(&cfg.Agent.TokenBudget, "PR_AGENT_TOKEN_BUDGET")

	setString(&cfg.Sandbox.Provider, "PR_AGENT_SANDBOX")
	setString(&cfg.Sandbox.URL, "PR_AGENT_SANDBOX_URL")
	setString(&cfg.Sandbox.Token, "PR_AGENT_SANDBOX_TOKEN")
	setString(&cfg.Sandbox.WorkDir, "PR_AGENT_SANDBOX_DIR")
	setInt(&cfg.Sandbox.GitConcurrency, "PR_AGENT_GIT_CONCURRENCY")

	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.GitHub.APIURL, "GITHUB_API_URL")

	setString(&cfg.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	setString(&cfg.Slack.BotToken, "SLACK_BOT_TOKEN")

	setString(&cfg.Discord.PublicKey, "DISCORD_PUBLIC_KEY")
	setString(&cfg.Discord.ApplicationID, "DISCORD_APPLICATION_ID")

	setString(&cfg.Logging.Level, "PR_AGENT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "PR_AGENT_LOG_FORMAT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Anthropic.APIKey == "" {
		return errors.New("anthropic.api_key is required")
	}
	if cfg.Anthropic.MaxTokens < 1 {
		return errors.New("anthropic.max_tokens must be >= 1")
	}
	if cfg.Anthropic.MaxRetries < 0 {
		return errors.New("anthropic.max_retries must be >= 0")
	}
	if cfg.Agent.MaxSteps < 1 {
		return errors.New("agent.max_steps must be >= 1")
	}
	if cfg.Agent.TokenBudget < 1 {
		return errors.New("agent.token_budget must be >= 1")
	}
	switch cfg.Sandbox.Provider {
	case "remote":
		if cfg.Sandbox.URL == "" {
			return errors.New("sandbox.url is required for the remote provider")
		}
	case "local":
		if cfg.Sandbox.GitConcurrency < 1 {
			return errors.New("sandbox.git_concurrency must be >= 1")
		}
	default:
		return fmt.Errorf("sandbox.provider %q: want remote or local", cfg.Sandbox.Provider)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format %q: want json or text", cfg.Logging.Format)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
