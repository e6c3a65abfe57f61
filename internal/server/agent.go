package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/petasbytes/pr-agent/internal/runner"
)

type agentRequest struct {
	Prompt  string `json:"prompt"`
	RepoURL string `json:"repoUrl"`
}

type agentResponse struct {
	Result runner.Outcome `json:"result"`
}

// handleAgent runs the agent synchronously and returns its outcome.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		writeError(w, http.StatusBadRequest, "repoUrl is required")
		return
	}

	out, err := s.agent.Run(r.Context(), req.Prompt, strings.TrimSpace(req.RepoURL))
	if err != nil {
		s.logger.Error("agent run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}
	writeJSON(w, http.StatusOK, agentResponse{Result: out})
}
