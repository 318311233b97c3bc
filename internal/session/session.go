// Package session resolves visitor tokens to conversation sessions
// backed by Postgres. Storage failures never fail the chat request:
// the store degrades to an ephemeral in-memory session and the
// conversation continues without persistence.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koopa0/blog-backend/internal/knowledge"
)

// Session lifecycle states.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
	StatusDeleted = "deleted"
)

// Sentinel errors for session operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInactive = errors.New("session is not active")
)

// Session is one visitor conversation.
type Session struct {
	ID            uuid.UUID
	ExternalToken string
	Language      string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Ephemeral marks a session that only exists in memory because the
	// database was unavailable when it was resolved. Nothing about an
	// ephemeral session is recorded.
	Ephemeral bool
}

// Active reports whether the session accepts new messages.
func (s *Session) Active() bool {
	return s.Status == StatusActive
}

// DB is the database surface the store needs, satisfied by
// *pgxpool.Pool. Defined here, by the consumer.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store looks up and persists sessions.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a session store.
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// ResolveOrCreate returns the session for externalToken, creating one
// when no active session exists. An empty token gets a fresh generated
// one. On storage failure it logs and returns an ephemeral session so
// the caller can keep serving the request.
//
// Tokens are deliberately not unique in storage: two concurrent first
// requests with the same token may both insert. Lookups take the
// oldest row, so the duplicates converge on subsequent requests.
func (s *Store) ResolveOrCreate(ctx context.Context, externalToken, language string) *Session {
	language = knowledge.NormalizeLanguage(language)

	if externalToken == "" {
		externalToken = uuid.NewString()
	}

	existing, err := s.lookup(ctx, externalToken)
	if err == nil {
		if existing.Language != language {
			s.updateLanguage(ctx, existing, language)
		}
		return existing
	}
	if !errors.Is(err, ErrSessionNotFound) {
		s.logger.Warn("session lookup failed, using ephemeral session",
			slog.Any("error", err))
		return ephemeral(externalToken, language)
	}

	created, err := s.insert(ctx, externalToken, language)
	if err != nil {
		s.logger.Warn("session insert failed, using ephemeral session",
			slog.Any("error", err))
		return ephemeral(externalToken, language)
	}
	return created
}

// Get returns the active session for externalToken.
func (s *Store) Get(ctx context.Context, externalToken string) (*Session, error) {
	return s.lookup(ctx, externalToken)
}

// Expire marks the session expired. Expired sessions no longer accept
// messages but their history is kept.
func (s *Store) Expire(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusExpired)
}

// Delete soft-deletes the session. The row stays for analytics; the
// session can never be resolved again.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusDeleted)
}

// ExpireIdle expires active sessions not touched since the cutoff.
// Returns the number of sessions expired.
func (s *Store) ExpireIdle(ctx context.Context, idleFor time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE sessions
		SET status = $1, updated_at = now()
		WHERE status = $2 AND updated_at < now() - $3::interval`,
		StatusExpired, StatusActive, fmt.Sprintf("%d seconds", int(idleFor.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("expire idle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) lookup(ctx context.Context, externalToken string) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(ctx, `
		SELECT id, external_token, language, status, created_at, updated_at
		FROM sessions
		WHERE external_token = $1 AND status = $2
		ORDER BY created_at
		LIMIT 1`,
		externalToken, StatusActive).
		Scan(&sess.ID, &sess.ExternalToken, &sess.Language, &sess.Status,
			&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &sess, nil
}

func (s *Store) insert(ctx context.Context, externalToken, language string) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(ctx, `
		INSERT INTO sessions (external_token, language, status)
		VALUES ($1, $2, $3)
		RETURNING id, external_token, language, status, created_at, updated_at`,
		externalToken, language, StatusActive).
		Scan(&sess.ID, &sess.ExternalToken, &sess.Language, &sess.Status,
			&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &sess, nil
}

// updateLanguage persists a language switch best-effort. The in-memory
// session is updated regardless so the current request uses the
// visitor's latest choice.
func (s *Store) updateLanguage(ctx context.Context, sess *Session, language string) {
	sess.Language = language
	if sess.Ephemeral {
		return
	}
	_, err := s.db.Exec(ctx, `
		UPDATE sessions SET language = $1, updated_at = now() WHERE id = $2`,
		language, sess.ID)
	if err != nil {
		s.logger.Warn("session language update failed",
			slog.String("session_id", sess.ID.String()),
			slog.Any("error", err))
	}
}

func (s *Store) transition(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE sessions SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		status, id, StatusActive)
	if err != nil {
		return fmt.Errorf("transition session to %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func ephemeral(externalToken, language string) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.New(),
		ExternalToken: externalToken,
		Language:      language,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
		Ephemeral:     true,
	}
}
