package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/petasbytes/pr-agent/internal/github"
	"github.com/petasbytes/pr-agent/internal/reply"
)

// slackMaxSkew rejects replayed requests.
const slackMaxSkew = 5 * time.Minute

const (
	slackHintRepo   = "Please include a GitHub repo URL in your message. Example: `@bot add a readme to https://github.com/owner/repo`"
	slackHintPrompt = "Please tell me what you'd like me to do. Example: `@bot add a contributing section to the readme https://github.com/owner/repo`"
)

type slackPayload struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	Event     slackEvent `json:"event"`
}

type slackEvent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

func (s *Server) handleSlack(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ts := r.Header.Get("X-Slack-Request-Timestamp")
	if !s.verifySlack(body, ts, r.Header.Get("X-Slack-Signature")) {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var p slackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case p.Type == "url_verification":
		writeJSON(w, http.StatusOK, map[string]string{"challenge": p.Challenge})
		return
	case p.Type == "event_callback" && p.Event.Type == "app_mention":
		s.onSlackMention(r, p.Event)
	}
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) onSlackMention(r *http.Request, ev slackEvent) {
	thread := ev.ThreadTS
	if thread == "" {
		thread = ev.TS
	}
	repoURL := github.ExtractRepoURL(ev.Text)
	prompt := github.ExtractPrompt(ev.Text)

	log := s.logger.With("channel", ev.Channel, "thread_ts", thread)
	post := func(ctx context.Context, text string) {
		if err := s.postSlackMessage(ctx, ev.Channel, thread, text); err != nil {
			log.Error("slack post failed", "error", err)
		}
	}

	switch {
	case repoURL == "":
		post(r.Context(), slackHintRepo)
		return
	case prompt == "":
		post(r.Context(), slackHintPrompt)
		return
	}

	s.background(r, func(ctx context.Context) {
		post(ctx, reply.Working(repoURL))
		out, err := s.agent.Run(ctx, prompt, repoURL)
		if err != nil {
			log.Error("agent run failed", "error", err)
			post(ctx, reply.Failure)
			return
		}
		post(ctx, reply.Success(out))
	})
}

// verifySlack checks the v0 signature over "v0:<ts>:<body>" and the request age.
func (s *Server) verifySlack(body []byte, ts, signature string) bool {
	if s.slack.SigningSecret == "" || ts == "" || signature == "" {
		return false
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	skew := s.now().Sub(time.Unix(sec, 0))
	if skew > slackMaxSkew || skew < -slackMaxSkew {
		return false
	}
	return hmac.Equal([]byte(slackSignature(s.slack.SigningSecret, ts, body)), []byte(signature))
}

func slackSignature(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", ts)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

type slackMessage struct {
	Channel  string `json:"channel"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Text     string `json:"text"`
}

// postSlackMessage calls chat.postMessage with the bot token.
func (s *Server) postSlackMessage(ctx context.Context, channel, threadTS, text string) error {
	body, err := json.Marshal(slackMessage{Channel: channel, ThreadTS: threadTS, Text: text})
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}
	url := strings.TrimRight(s.slack.APIURL, "/") + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.slack.BotToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	var res struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !res.OK {
		return fmt.Errorf("slack: %s", res.Error)
	}
	return nil
}
