// Package recorder persists conversation turns and usage analytics.
// Everything here is best-effort: recording failures are logged and
// swallowed, never propagated, so persistence trouble cannot break a
// chat response that was already produced.
package recorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koopa0/blog-backend/internal/knowledge"
	"github.com/koopa0/blog-backend/internal/session"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DB is the write surface the recorder needs, satisfied by
// *pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TurnMeta is stored alongside assistant turns as jsonb.
type TurnMeta struct {
	Language     string           `json:"language,omitempty"`
	RelatedLinks []knowledge.Link `json:"relatedLinks,omitempty"`
	ProviderUsed bool             `json:"providerUsed"`
	LatencyMs    int64            `json:"latencyMs,omitempty"`
}

// Recorder writes turns, knowledge query analytics, and API usage
// counters. Async writes are tracked on a WaitGroup so shutdown can
// drain them.
type Recorder struct {
	db     DB
	logger *slog.Logger

	// bgCtx outlives the request contexts that spawn async writes, so
	// an already-answered request's recording survives the response.
	bgCtx context.Context
	wg    sync.WaitGroup
}

// New creates a recorder. bgCtx should be the process lifetime
// context; it bounds asynchronous writes started after a response has
// been sent.
func New(bgCtx context.Context, db DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{db: db, logger: logger, bgCtx: bgCtx}
}

// RecordTurn persists one message. Skips ephemeral and non-active
// sessions. Never returns an error.
func (r *Recorder) RecordTurn(ctx context.Context, sess *session.Session, role, content string, meta *TurnMeta) {
	if sess == nil || sess.Ephemeral || !sess.Active() {
		return
	}

	metaJSON := []byte("{}")
	if meta != nil {
		encoded, err := json.Marshal(meta)
		if err != nil {
			r.logger.Warn("turn metadata marshal failed", slog.Any("error", err))
		} else {
			metaJSON = encoded
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (session_id, role, content, metadata)
		VALUES ($1, $2, $3, $4)`,
		sess.ID, role, content, metaJSON)
	if err != nil {
		r.logger.Warn("turn recording failed",
			slog.String("session_id", sess.ID.String()),
			slog.String("role", role),
			slog.Any("error", err))
		return
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE sessions SET updated_at = now() WHERE id = $1`, sess.ID); err != nil {
		r.logger.Warn("session touch failed",
			slog.String("session_id", sess.ID.String()),
			slog.Any("error", err))
	}
}

// RecordTurnAsync records a turn in the background, detached from the
// request context. Used for assistant turns so the visitor is not kept
// waiting on a persistence write.
func (r *Recorder) RecordTurnAsync(sess *session.Session, role, content string, meta *TurnMeta) {
	if sess == nil || sess.Ephemeral || !sess.Active() {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.bgCtx, 10*time.Second)
		defer cancel()
		r.RecordTurn(ctx, sess, role, content, meta)
	}()
}

// RecordQuery stores knowledge lookup analytics for a turn.
func (r *Recorder) RecordQuery(ctx context.Context, sessionID uuid.UUID, queryText string, links []knowledge.Link, relevance float32) {
	resultsJSON, err := json.Marshal(links)
	if err != nil {
		r.logger.Warn("query analytics marshal failed", slog.Any("error", err))
		return
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO knowledge_queries (session_id, query_text, search_results, relevance_score)
		VALUES ($1, $2, $3, $4)`,
		sessionID, queryText, resultsJSON, relevance)
	if err != nil {
		r.logger.Warn("query analytics recording failed", slog.Any("error", err))
	}
}

// RecordUsage bumps the per-session request counter for an endpoint.
func (r *Recorder) RecordUsage(ctx context.Context, sessionID uuid.UUID, endpoint string) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO api_usage (session_id, endpoint, request_count, last_used_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (session_id, endpoint)
		DO UPDATE SET request_count = api_usage.request_count + 1, last_used_at = now()`,
		sessionID, endpoint)
	if err != nil {
		r.logger.Warn("usage recording failed",
			slog.String("endpoint", endpoint),
			slog.Any("error", err))
	}
}

// RecordExchangeAsync persists the assistant turn plus its analytics
// in one background task. The usage counter is bumped only when the
// provider actually produced the answer; knowledge-base-only replies
// cost nothing upstream.
func (r *Recorder) RecordExchangeAsync(sess *session.Session, userMessage, reply string, meta *TurnMeta, endpoint string) {
	if sess == nil || sess.Ephemeral || !sess.Active() {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.bgCtx, 10*time.Second)
		defer cancel()

		r.RecordTurn(ctx, sess, RoleAssistant, reply, meta)
		if meta != nil {
			relevance := float32(0)
			if len(meta.RelatedLinks) > 0 {
				relevance = 1
			}
			r.RecordQuery(ctx, sess.ID, userMessage, meta.RelatedLinks, relevance)
		}
		if meta != nil && meta.ProviderUsed {
			r.RecordUsage(ctx, sess.ID, endpoint)
		}
	}()
}

// Wait blocks until all in-flight background writes finish. Called
// during shutdown.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
