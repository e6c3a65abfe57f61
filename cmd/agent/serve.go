package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petasbytes/pr-agent/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the Slack and Discord webhooks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, r, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s := server.New(r,
				server.WithSlack(cfg.Slack),
				server.WithDiscord(cfg.Discord),
				server.WithLogger(log),
			)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           s.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				IdleTimeout:       120 * time.Second,
				// No WriteTimeout: /api/agent holds the request for the whole run.
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server", "addr", cfg.Server.Addr, "sandbox", cfg.Sandbox.Provider)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			log.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}

			done := make(chan struct{})
			go func() { s.Wait(); close(done) }()
			select {
			case <-done:
			case <-shutdownCtx.Done():
				log.Warn("background runs still in progress at shutdown")
			}
			return nil
		},
	}
}
