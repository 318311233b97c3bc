package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/koopa0/blog-backend/internal/arbiter"
	"github.com/koopa0/blog-backend/internal/knowledge"
	"github.com/koopa0/blog-backend/internal/provider"
	"github.com/koopa0/blog-backend/internal/recorder"
	"github.com/koopa0/blog-backend/internal/session"
)

const (
	// maxRequestBytes caps the chat request body.
	maxRequestBytes = 64 << 10

	// maxMessageRunes is the longest accepted visitor message.
	maxMessageRunes = 1000

	chatEndpoint = "/api/chat"
)

// Completer produces a provider answer. Satisfied by *provider.Client.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []provider.Turn, message string) (string, error)
}

// Sessions resolves visitor tokens. Satisfied by *session.Store.
type Sessions interface {
	ResolveOrCreate(ctx context.Context, externalToken, language string) *session.Session
}

// chatRequest is the inbound payload.
//
// Context carries client-side conversation history; sender is "user"
// or "assistant" ("bot" is accepted as an alias for older clients).
type chatRequest struct {
	Message   string        `json:"message"`
	SessionID string        `json:"sessionId,omitempty"`
	Language  string        `json:"language,omitempty"`
	Context   []contextTurn `json:"context,omitempty"`
}

type contextTurn struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// chatResponse is the success payload.
type chatResponse struct {
	Reply        string           `json:"reply"`
	RelatedLinks []knowledge.Link `json:"relatedLinks"`
	SessionID    string           `json:"sessionId"`
	Timestamp    string           `json:"timestamp"`
}

// chatHandler drives one conversation exchange: validate, resolve the
// session, ask the provider, arbitrate, record, reply.
type chatHandler struct {
	logger    *slog.Logger
	kb        *knowledge.Base
	completer Completer
	sessions  Sessions
	recorder  *recorder.Recorder
}

// send handles POST /api/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "request body must be valid JSON", h.logger)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "message is required", h.logger)
		return
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		WriteError(w, http.StatusBadRequest, "invalid_input", "message exceeds 1000 characters", h.logger)
		return
	}

	ctx := r.Context()
	language := knowledge.NormalizeLanguage(req.Language)

	sess := h.sessions.ResolveOrCreate(ctx, req.SessionID, language)
	language = sess.Language

	h.recorder.RecordTurn(ctx, sess, recorder.RoleUser, message, &recorder.TurnMeta{Language: language})

	start := time.Now()
	answer, err := h.completer.Complete(ctx, h.kb.SystemPrompt(language), historyFromContext(req.Context), message)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}
	latency := time.Since(start)

	reply := arbiter.Arbitrate(h.kb, answer, message, language)
	links := h.kb.SuggestLinks(message, language)

	h.recorder.RecordExchangeAsync(sess, message, reply, &recorder.TurnMeta{
		Language:     language,
		RelatedLinks: links,
		ProviderUsed: answer != "",
		LatencyMs:    latency.Milliseconds(),
	}, chatEndpoint)

	WriteJSON(w, http.StatusOK, chatResponse{
		Reply:        reply,
		RelatedLinks: links,
		SessionID:    sess.ExternalToken,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

// writeProviderError maps a tagged provider error to the HTTP surface.
// Transient failures never reach here; the client degrades those to an
// empty answer.
func (h *chatHandler) writeProviderError(w http.ResponseWriter, err error) {
	var perr *provider.Error
	if !errors.As(err, &perr) {
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		return
	}

	switch perr.Kind {
	case provider.KindRateLimited:
		w.Header().Set("Retry-After", "60")
		WriteError(w, http.StatusTooManyRequests, "rate_limit", "the assistant is receiving too many requests, please retry shortly", h.logger)
	case provider.KindQuota:
		WriteError(w, http.StatusServiceUnavailable, "quota_exceeded", "the assistant is temporarily unavailable", h.logger)
	default:
		WriteError(w, http.StatusServiceUnavailable, "provider_error", "the assistant is temporarily unavailable", h.logger)
	}
}

// historyFromContext converts client-supplied context turns, dropping
// blanks and unknown senders. The provider client caps the window.
func historyFromContext(turns []contextTurn) []provider.Turn {
	if len(turns) == 0 {
		return nil
	}
	history := make([]provider.Turn, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Message)
		if content == "" {
			continue
		}
		switch strings.ToLower(t.Sender) {
		case "user":
			history = append(history, provider.Turn{Role: provider.RoleUser, Content: content})
		case "assistant", "bot":
			history = append(history, provider.Turn{Role: provider.RoleAssistant, Content: content})
		}
	}
	return history
}
