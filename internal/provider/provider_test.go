package provider

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

// newTestClient returns a client whose upstream call and backoff sleep
// are stubbed, so retry behavior runs instantly.
func newTestClient(t *testing.T, generate generateFunc) (*Client, *[]time.Duration) {
	t.Helper()

	c := New(Config{
		APIKey:    "test-key",
		ModelName: "gpt-4o-mini",
		MaxTokens: 500,
	})
	c.generate = generate

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestCompleteSuccess(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		return "  NeuroSeg segments brain MRI volumes.  ", nil
	})

	got, err := c.Complete(context.Background(), "system", nil, "what is neuroseg")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "NeuroSeg segments brain MRI volumes." {
		t.Errorf("Complete = %q, want trimmed answer", got)
	}
}

// Three consecutive connection resets exhaust the retry budget: the
// client degrades to an empty answer with no error, so the caller can
// fall back to canned responses.
func TestCompleteTransientExhaustionDegrades(t *testing.T) {
	t.Parallel()

	calls := 0
	c, slept := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		calls++
		return "", syscall.ECONNRESET
	})

	got, err := c.Complete(context.Background(), "system", nil, "hello")
	if err != nil {
		t.Fatalf("transient exhaustion must not surface an error, got %v", err)
	}
	if got != "" {
		t.Errorf("expected empty answer, got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	// Linear backoff between attempts: 2s then 4s.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestCompleteRecoversOnRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	c, _ := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("dial tcp: i/o timeout")
		}
		return "recovered answer", nil
	})

	got, err := c.Complete(context.Background(), "system", nil, "hello")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "recovered answer" {
		t.Errorf("Complete = %q, want recovered answer", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestCompleteRateLimitNoRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	c, slept := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		calls++
		return "", errors.New("429: Too Many Requests")
	})

	_, err := c.Complete(context.Background(), "system", nil, "hello")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if perr.Kind != KindRateLimited || perr.Code != CodeRateLimited {
		t.Errorf("got kind=%v code=%q, want rate limited", perr.Kind, perr.Code)
	}
	if calls != 1 {
		t.Errorf("rate-limited call must not be retried, got %d attempts", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("no backoff expected, slept %v", *slept)
	}
}

func TestCompleteQuotaNoRetry(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		return "", errors.New("insufficient_quota: billing hard limit reached")
	})

	_, err := c.Complete(context.Background(), "system", nil, "hello")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if perr.Kind != KindQuota || perr.Code != CodeQuota {
		t.Errorf("got kind=%v code=%q, want quota exceeded", perr.Kind, perr.Code)
	}
}

func TestCompleteFatalNoRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	c, _ := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		calls++
		return "", errors.New("401 invalid api key")
	})

	_, err := c.Complete(context.Background(), "system", nil, "hello")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if perr.Kind != KindFatal || perr.Code != CodeProvider {
		t.Errorf("got kind=%v code=%q, want fatal provider_error", perr.Kind, perr.Code)
	}
	if calls != 1 {
		t.Errorf("fatal error must not be retried, got %d attempts", calls)
	}
}

func TestCompleteCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	c := New(Config{APIKey: "test-key", ModelName: "gpt-4o-mini"})
	c.generate = func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		calls++
		return "", syscall.ECONNRESET
	}
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	got, err := c.Complete(ctx, "system", nil, "hello")
	if err != nil {
		t.Fatalf("cancellation during backoff must degrade, not error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty answer, got %q", got)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", calls)
	}
}

func TestCompleteTruncatesHistory(t *testing.T) {
	t.Parallel()

	var gotHistory []Turn
	c, _ := newTestClient(t, func(_ context.Context, _ string, history []Turn, _ string) (string, error) {
		gotHistory = history
		return "ok", nil
	})

	history := make([]Turn, 8)
	for i := range history {
		history[i] = Turn{Role: RoleUser, Content: string(rune('a' + i))}
	}

	if _, err := c.Complete(context.Background(), "system", history, "hello"); err != nil {
		t.Fatal(err)
	}
	if len(gotHistory) != maxHistoryTurns {
		t.Fatalf("history length = %d, want %d", len(gotHistory), maxHistoryTurns)
	}
	// The most recent turns survive.
	if gotHistory[len(gotHistory)-1].Content != "h" {
		t.Errorf("last turn = %q, want most recent", gotHistory[len(gotHistory)-1].Content)
	}
}

func TestCompleteEmptyMessage(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(_ context.Context, _ string, _ []Turn, _ string) (string, error) {
		t.Fatal("generate must not be called for an empty message")
		return "", nil
	})

	_, err := c.Complete(context.Background(), "system", nil, "   ")
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != KindFatal {
		t.Fatalf("expected fatal error for empty message, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantCode string
	}{
		{"connection reset", syscall.ECONNRESET, KindTransient, CodeTransient},
		{"deadline", context.DeadlineExceeded, KindTransient, CodeTransient},
		{"io timeout", errors.New("dial tcp 1.2.3.4:443: i/o timeout"), KindTransient, CodeTransient},
		{"dns failure", errors.New("lookup api.openai.com: no such host"), KindTransient, CodeTransient},
		{"bad gateway", errors.New("unexpected status 502 Bad Gateway"), KindTransient, CodeTransient},
		{"rate limit text", errors.New("Rate limit reached for gpt-4o-mini"), KindRateLimited, CodeRateLimited},
		{"429 status", errors.New("received 429 from upstream"), KindRateLimited, CodeRateLimited},
		{"quota", errors.New("You exceeded your current quota"), KindQuota, CodeQuota},
		{"billing", errors.New("billing hard limit has been reached"), KindQuota, CodeQuota},
		{"auth", errors.New("401 Unauthorized: invalid api key"), KindFatal, CodeProvider},
		{"unknown", errors.New("malformed response body"), KindFatal, CodeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			perr := Classify(tt.err)
			if perr.Kind != tt.wantKind {
				t.Errorf("Classify(%v).Kind = %v, want %v", tt.err, perr.Kind, tt.wantKind)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("Classify(%v).Code = %q, want %q", tt.err, perr.Code, tt.wantCode)
			}
			if !errors.Is(perr, tt.err) {
				t.Errorf("Classify must wrap the original error")
			}
		})
	}
}
