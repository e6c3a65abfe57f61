package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/petasbytes/pr-agent/internal/github"
	"github.com/petasbytes/pr-agent/internal/reply"
)

// Discord interaction and response types.
const (
	discordPing               = 1
	discordApplicationCommand = 2

	discordPong                   = 1
	discordChannelMessage         = 4
	discordDeferredChannelMessage = 5
)

const (
	discordHintRepo   = "Please provide a valid GitHub repo URL. Example: `/code prompt:add a readme repo:https://github.com/owner/repo`"
	discordHintPrompt = "Please tell me what you'd like me to do. Example: `/code prompt:add a contributing section repo:https://github.com/owner/repo`"
)

type discordInteraction struct {
	Type  int    `json:"type"`
	Token string `json:"token"`
	Data  struct {
		Options []discordOption `json:"options"`
	} `json:"data"`
}

type discordOption struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type discordResponse struct {
	Type int                  `json:"type"`
	Data *discordResponseData `json:"data,omitempty"`
}

type discordResponseData struct {
	Content string `json:"content"`
}

func (s *Server) handleDiscord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sig := r.Header.Get("X-Signature-Ed25519")
	ts := r.Header.Get("X-Signature-Timestamp")
	if !verifyDiscord(s.discord.PublicKey, body, sig, ts) {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var in discordInteraction
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Type != discordApplicationCommand {
		writeJSON(w, http.StatusOK, discordResponse{Type: discordPong})
		return
	}

	prompt := strings.TrimSpace(in.option("prompt"))
	repoURL := github.ExtractRepoURL(in.option("repo"))
	switch {
	case repoURL == "":
		writeJSON(w, http.StatusOK, message(discordChannelMessage, discordHintRepo))
		return
	case prompt == "":
		writeJSON(w, http.StatusOK, message(discordChannelMessage, discordHintPrompt))
		return
	}

	token := in.Token
	log := s.logger.With("interaction", "discord")
	s.background(r, func(ctx context.Context) {
		text := reply.Failure
		out, err := s.agent.Run(ctx, prompt, repoURL)
		if err != nil {
			log.Error("agent run failed", "error", err)
		} else {
			text = reply.Success(out)
		}
		if err := s.sendFollowup(ctx, token, text); err != nil {
			log.Error("discord follow-up failed", "error", err)
		}
	})

	writeJSON(w, http.StatusOK, message(discordDeferredChannelMessage, reply.Working(repoURL)))
}

func (in discordInteraction) option(name string) string {
	for _, o := range in.Data.Options {
		if o.Name != name {
			continue
		}
		if v, ok := o.Value.(string); ok {
			return v
		}
	}
	return ""
}

func message(typ int, content string) discordResponse {
	return discordResponse{Type: typ, Data: &discordResponseData{Content: content}}
}

// verifyDiscord checks the ed25519 signature over timestamp+body against the
// application's hex-encoded public key.
func verifyDiscord(publicKeyHex string, body []byte, signatureHex, ts string) bool {
	if publicKeyHex == "" || signatureHex == "" || ts == "" {
		return false
	}
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(ts)+len(body))
	msg = append(msg, ts...)
	msg = append(msg, body...)
	return ed25519.Verify(ed25519.PublicKey(key), msg, sig)
}

// sendFollowup posts a message to the interaction's webhook.
func (s *Server) sendFollowup(ctx context.Context, token, content string) error {
	body, err := json.Marshal(discordResponseData{Content: content})
	if err != nil {
		return fmt.Errorf("marshal discord message: %w", err)
	}
	url := fmt.Sprintf("%s/webhooks/%s/%s", strings.TrimRight(s.discord.APIURL, "/"), s.discord.ApplicationID, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}
	return nil
}
