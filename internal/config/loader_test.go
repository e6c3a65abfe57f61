package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Agent.MaxSteps != 10 {
		t.Errorf("expected max_steps 10, got %d", cfg.Agent.MaxSteps)
	}
	if cfg.Anthropic.RequestTimeout != 2*time.Minute {
		t.Errorf("expected request timeout 2m, got %v", cfg.Anthropic.RequestTimeout)
	}
	if cfg.Sandbox.Provider != "remote" {
		t.Errorf("expected remote sandbox provider, got %s", cfg.Sandbox.Provider)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  addr: ":9090"
anthropic:
  model: "claude-test"
  request_timeout: 45s
agent:
  max_steps: 5
sandbox:
  provider: local
  work_dir: /tmp/sbx
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Anthropic.Model != "claude-test" {
		t.Errorf("expected model claude-test, got %s", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.RequestTimeout != 45*time.Second {
		t.Errorf("expected request timeout 45s, got %v", cfg.Anthropic.RequestTimeout)
	}
	if cfg.Agent.MaxSteps != 5 {
		t.Errorf("expected max_steps 5, got %d", cfg.Agent.MaxSteps)
	}
	if cfg.Sandbox.Provider != "local" || cfg.Sandbox.WorkDir != "/tmp/sbx" {
		t.Errorf("unexpected sandbox config %+v", cfg.Sandbox)
	}
	// Unchanged fields keep defaults
	if cfg.Agent.TokenBudget != 150_000 {
		t.Errorf("expected default token budget, got %d", cfg.Agent.TokenBudget)
	}
}

func TestLoadYAMLMissingFile(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/pr-agent.yaml"); err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := loadYAML(&cfg, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(yamlPath, []byte("agent:\n  max_steps: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("PR_AGENT_SANDBOX_URL", "http://sandbox.internal")
	t.Setenv("PR_AGENT_MAX_STEPS", "7")
	t.Setenv("PR_AGENT_REQUEST_TIMEOUT", "30s")
	t.Setenv("PR_AGENT_MAX_TOKENS", "not-a-number")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Agent.MaxSteps != 7 {
		t.Errorf("expected env max_steps 7, got %d", cfg.Agent.MaxSteps)
	}
	if cfg.Anthropic.RequestTimeout != 30*time.Second {
		t.Errorf("expected env timeout 30s, got %v", cfg.Anthropic.RequestTimeout)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("invalid env value should be ignored, got %d", cfg.Anthropic.MaxTokens)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Defaults()
		cfg.Anthropic.APIKey = "sk-test"
		cfg.Sandbox.URL = "http://sandbox.internal"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid remote", mutate: func(*Config) {}},
		{name: "valid local", mutate: func(c *Config) { c.Sandbox.Provider = "local"; c.Sandbox.URL = "" }},
		{name: "missing api key", mutate: func(c *Config) { c.Anthropic.APIKey = "" }, wantErr: "anthropic.api_key"},
		{name: "remote without url", mutate: func(c *Config) { c.Sandbox.URL = "" }, wantErr: "sandbox.url"},
		{name: "unknown provider", mutate: func(c *Config) { c.Sandbox.Provider = "docker" }, wantErr: "sandbox.provider"},
		{name: "zero steps", mutate: func(c *Config) { c.Agent.MaxSteps = 0 }, wantErr: "agent.max_steps"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
