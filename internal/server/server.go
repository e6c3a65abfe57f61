// Package server exposes the agent over HTTP: a JSON API plus Slack and
// Discord webhooks.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/petasbytes/pr-agent/internal/config"
	"github.com/petasbytes/pr-agent/internal/runner"
)

// maxBodyBytes bounds inbound request bodies.
const maxBodyBytes = 1 << 20

// Agent runs one coding session. *runner.Runner satisfies it.
type Agent interface {
	Run(ctx context.Context, prompt, repoURL string) (runner.Outcome, error)
}

// Server routes inbound requests to the agent. Chat-triggered runs happen in
// the background; Wait blocks until they finish.
type Server struct {
	agent   Agent
	slack   config.Slack
	discord config.Discord
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time

	wg sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithSlack enables signature checks and replies for the Slack endpoint.
func WithSlack(c config.Slack) Option { return func(s *Server) { s.slack = c } }

// WithDiscord enables signature checks and follow-ups for the Discord endpoint.
func WithDiscord(c config.Discord) Option { return func(s *Server) { s.discord = c } }

// WithHTTPClient sets the client used for outbound Slack and Discord calls.
func WithHTTPClient(c *http.Client) Option { return func(s *Server) { s.http = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithClock overrides the time source used for replay checks.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New returns a Server backed by agent.
func New(agent Agent, opts ...Option) *Server {
	s := &Server{
		agent:  agent,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler with the standard middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/agent", s.handleAgent)
	r.Post("/api/slack", s.handleSlack)
	r.Post("/api/discord", s.handleDiscord)
	return r
}

// Wait blocks until all background runs have finished.
func (s *Server) Wait() { s.wg.Wait() }

// background runs fn detached from the request that triggered it.
func (s *Server) background(r *http.Request, fn func(ctx context.Context)) {
	ctx := context.WithoutCancel(r.Context())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("background run panicked", "panic", p)
			}
		}()
		fn(ctx)
	}()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
