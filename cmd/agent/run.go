package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/petasbytes/pr-agent/internal/reply"
	"github.com/petasbytes/pr-agent/internal/runner"
)

func newRunCmd() *cobra.Command {
	var prompt, repoURL string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent once and print its answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prompt == "" {
				return errors.New("--prompt is required")
			}
			_, _, r, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out, err := r.Run(ctx, prompt, repoURL)
			if err != nil {
				return fmt.Errorf("agent run: %w", err)
			}
			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "What the agent should do")
	cmd.Flags().StringVarP(&repoURL, "repo", "r", "", "GitHub repository URL")
	return cmd
}

// printOutcome writes the model's answer followed by the PR link, if any.
func printOutcome(w io.Writer, out runner.Outcome) {
	if out.Response != "" {
		fmt.Fprintln(w, out.Response)
	}
	if u := reply.PullURL(out); u != "" {
		fmt.Fprintln(w, "Pull request:", u)
	}
}
