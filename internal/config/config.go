// Package config loads pr-agent configuration.
package config

import "time"

// Config holds all service configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Anthropic Anthropic `yaml:"anthropic"`
	Agent     Agent     `yaml:"agent"`
	Sandbox   Sandbox   `yaml:"sandbox"`
	GitHub    GitHub    `yaml:"github"`
	Slack     Slack     `yaml:"slack"`
	Discord   Discord   `yaml:"discord"`
	Logging   Logging   `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Anthropic configures the model client.
type Anthropic struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	MaxTokens      int64         `yaml:"max_tokens"`
	MaxRetries     int           `yaml:"max_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Agent bounds a single run.
type Agent struct {
	MaxSteps    int `yaml:"max_steps"`
	TokenBudget int `yaml:"token_budget"`
}

// Sandbox selects and configures the sandbox provider.
type Sandbox struct {
	Provider       string `yaml:"provider"` // "remote" or "local"
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	WorkDir        string `yaml:"work_dir"`
	GitConcurrency int    `yaml:"git_concurrency"`
}

// GitHub configures pull request creation for the local provider.
type GitHub struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// Slack configures the Slack events endpoint.
type Slack struct {
	SigningSecret string `yaml:"signing_secret"`
	BotToken      string `yaml:"bot_token"`
	APIURL        string `yaml:"api_url"`
}

// Discord configures the Discord interactions endpoint.
type Discord struct {
	PublicKey     string `yaml:"public_key"`
	ApplicationID string `yaml:"application_id"`
	APIURL        string `yaml:"api_url"`
}

// Logging holds logging configuration.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Anthropic: Anthropic{
			Model:          "claude-sonnet-4-0",
			MaxTokens:      4096,
			MaxRetries:     2,
			RequestTimeout: 2 * time.Minute,
		},
		Agent: Agent{
			MaxSteps:    10,
			TokenBudget: 150_000,
		},
		Sandbox: Sandbox{
			Provider:       "remote",
			GitConcurrency: 4,
		},
		GitHub: GitHub{
			APIURL: "https://api.github.com",
		},
		Slack: Slack{
			APIURL: "https://slack.com/api",
		},
		Discord: Discord{
			APIURL: "https://discord.com/api/v10",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}
