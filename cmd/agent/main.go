// Command agent asks a model to change a GitHub repository and open a pull
// request, either once from the command line or behind an HTTP server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petasbytes/pr-agent/internal/config"
	"github.com/petasbytes/pr-agent/internal/logger"
	"github.com/petasbytes/pr-agent/internal/provider"
	"github.com/petasbytes/pr-agent/internal/runner"
	"github.com/petasbytes/pr-agent/internal/sandbox"
	"github.com/petasbytes/pr-agent/internal/sandbox/local"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "agent",
	Short:         "agent - opens pull requests from natural language requests",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "Path to YAML config (optional)")
	rootCmd.AddCommand(newRunCmd(), newServeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads config and builds the logger and runner shared by all commands.
func setup(logOut io.Writer) (*config.Config, *slog.Logger, *runner.Runner, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.NewWithWriter(cfg.Logging, logOut)
	slog.SetDefault(log)

	p, err := newSandboxProvider(cfg.Sandbox, cfg.GitHub, log)
	if err != nil {
		return nil, nil, nil, err
	}
	r := runner.New(provider.NewAnthropicClient(cfg.Anthropic), p,
		runner.WithModel(provider.Model(cfg.Anthropic)),
		runner.WithMaxTokens(cfg.Anthropic.MaxTokens),
		runner.WithMaxSteps(cfg.Agent.MaxSteps),
		runner.WithTokenBudget(cfg.Agent.TokenBudget),
		runner.WithLogger(log),
	)
	return cfg, log, r, nil
}

// newSandboxProvider selects the remote sandbox service or local git checkouts.
func newSandboxProvider(sc config.Sandbox, gh config.GitHub, log *slog.Logger) (sandbox.Provider, error) {
	switch sc.Provider {
	case "remote":
		return sandbox.NewClient(sc.URL, sc.Token), nil
	case "local":
		return local.New(local.Config{
			WorkDir:        sc.WorkDir,
			GitHubToken:    gh.Token,
			GitHubAPIURL:   gh.APIURL,
			GitConcurrency: sc.GitConcurrency,
		}, local.WithLogger(log)), nil
	default:
		return nil, fmt.Errorf("unknown sandbox provider %q", sc.Provider)
	}
}
