package recorder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koopa0/blog-backend/internal/knowledge"
	"github.com/koopa0/blog-backend/internal/session"
)

// fakeDB counts Exec calls, optionally failing them all.
type fakeDB struct {
	mu   sync.Mutex
	sql  []string
	args [][]any
	err  error
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sql = append(db.sql, sql)
	db.args = append(db.args, args)
	return pgconn.CommandTag{}, db.err
}

func (db *fakeDB) calls() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.sql...)
}

func activeSession() *session.Session {
	return &session.Session{
		ID:            uuid.New(),
		ExternalToken: "tok",
		Language:      "en",
		Status:        session.StatusActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestRecordTurnWritesMessageAndTouchesSession(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r := New(context.Background(), db, nil)

	r.RecordTurn(context.Background(), activeSession(), RoleUser, "hello", nil)

	calls := db.calls()
	if len(calls) != 2 {
		t.Fatalf("expected insert + touch, got %d calls: %v", len(calls), calls)
	}
	if !strings.Contains(calls[0], "INSERT INTO messages") {
		t.Errorf("first call should insert the message, got %q", calls[0])
	}
	if !strings.Contains(calls[1], "UPDATE sessions SET updated_at") {
		t.Errorf("second call should touch the session, got %q", calls[1])
	}
}

func TestRecordTurnSkipsEphemeralAndInactive(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r := New(context.Background(), db, nil)

	eph := activeSession()
	eph.Ephemeral = true
	r.RecordTurn(context.Background(), eph, RoleUser, "hello", nil)

	expired := activeSession()
	expired.Status = session.StatusExpired
	r.RecordTurn(context.Background(), expired, RoleUser, "hello", nil)

	r.RecordTurn(context.Background(), nil, RoleUser, "hello", nil)

	if calls := db.calls(); len(calls) != 0 {
		t.Errorf("no writes expected, got %v", calls)
	}
}

// Recording is best-effort: a failing database must not panic or block
// the caller in any way.
func TestRecordTurnSwallowsErrors(t *testing.T) {
	t.Parallel()

	db := &fakeDB{err: errors.New("connection refused")}
	r := New(context.Background(), db, nil)

	r.RecordTurn(context.Background(), activeSession(), RoleAssistant, "reply", &TurnMeta{
		Language:     "en",
		ProviderUsed: true,
	})
}

func TestRecordExchangeAsyncWritesEverything(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r := New(context.Background(), db, nil)

	meta := &TurnMeta{
		Language:     "en",
		RelatedLinks: []knowledge.Link{{Title: "Research", URL: "/research"}},
		ProviderUsed: true,
		LatencyMs:    128,
	}
	r.RecordExchangeAsync(activeSession(), "what research?", "He studies medical imaging.", meta, "/api/chat")
	r.Wait()

	var turn, query, usage bool
	for _, sql := range db.calls() {
		switch {
		case strings.Contains(sql, "INSERT INTO messages"):
			turn = true
		case strings.Contains(sql, "INSERT INTO knowledge_queries"):
			query = true
		case strings.Contains(sql, "INSERT INTO api_usage"):
			usage = true
		}
	}
	if !turn || !query || !usage {
		t.Errorf("missing writes: turn=%v query=%v usage=%v", turn, query, usage)
	}
}

// Knowledge-base-only replies do not consume provider budget, so the
// usage counter stays untouched.
func TestRecordExchangeAsyncSkipsUsageWithoutProvider(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r := New(context.Background(), db, nil)

	r.RecordExchangeAsync(activeSession(), "q", "canned reply", &TurnMeta{
		Language:     "zh",
		ProviderUsed: false,
	}, "/api/chat")
	r.Wait()

	for _, sql := range db.calls() {
		if strings.Contains(sql, "INSERT INTO api_usage") {
			t.Error("usage must not be recorded when the provider was not used")
		}
	}
}

func TestRecordExchangeAsyncSkipsEphemeral(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r := New(context.Background(), db, nil)

	sess := activeSession()
	sess.Ephemeral = true
	r.RecordExchangeAsync(sess, "q", "a", &TurnMeta{}, "/api/chat")
	r.Wait()

	if calls := db.calls(); len(calls) != 0 {
		t.Errorf("no writes expected for ephemeral session, got %v", calls)
	}
}

func TestRecordUsageUpsert(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	r := New(context.Background(), db, nil)

	r.RecordUsage(context.Background(), uuid.New(), "/api/chat")

	calls := db.calls()
	if len(calls) != 1 || !strings.Contains(calls[0], "ON CONFLICT") {
		t.Errorf("expected a single upsert, got %v", calls)
	}
}
