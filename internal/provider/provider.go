// Package provider wraps the Genkit completion API behind a small
// client with bounded retries. Transient failures degrade to an empty
// answer instead of an error; the caller falls back to the knowledge
// base, so a flaky upstream never takes the chat endpoint down.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
)

// Conversation roles on Turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior exchange entry passed as conversation context.
type Turn struct {
	Role    string
	Content string
}

// Defaults applied by New when the corresponding Config field is zero.
const (
	defaultAttemptTimeout = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultBackoffStep    = 2 * time.Second

	// maxHistoryTurns bounds how much context is forwarded upstream.
	maxHistoryTurns = 5
)

// Config configures the completion client.
type Config struct {
	APIKey      string
	ModelName   string
	Temperature float32
	MaxTokens   int

	// AttemptTimeout bounds a single upstream call. Default 30s.
	AttemptTimeout time.Duration

	// MaxAttempts is the total number of tries for transient failures.
	// Default 3.
	MaxAttempts int

	// BackoffStep scales the linear backoff: attempt n sleeps n*step.
	// Default 2s.
	BackoffStep time.Duration

	Logger *slog.Logger
}

// generateFunc performs one upstream completion call. Swapped out in
// unit tests so retry behavior is testable without Genkit.
type generateFunc func(ctx context.Context, systemPrompt string, history []Turn, message string) (string, error)

// Client talks to the completion provider. Safe for concurrent use;
// the underlying Genkit instance is initialized once, lazily, on the
// first call.
type Client struct {
	apiKey      string
	modelName   string
	temperature float32
	maxTokens   int

	attemptTimeout time.Duration
	maxAttempts    int
	backoffStep    time.Duration

	logger *slog.Logger

	initOnce sync.Once
	initErr  error
	g        *genkit.Genkit

	generate generateFunc
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a completion client. Genkit itself is not touched until
// the first Complete call.
func New(cfg Config) *Client {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffStep <= 0 {
		cfg.BackoffStep = defaultBackoffStep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		apiKey:         cfg.APIKey,
		modelName:      cfg.ModelName,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		attemptTimeout: cfg.AttemptTimeout,
		maxAttempts:    cfg.MaxAttempts,
		backoffStep:    cfg.BackoffStep,
		logger:         cfg.Logger,
		sleep:          sleepCtx,
	}
	c.generate = c.generateGenkit
	return c
}

// Complete asks the provider for an answer. The returned string is
// empty when no answer could be produced within the retry budget; the
// error is non-nil only for non-retryable conditions (rate limit,
// quota, fatal), always as a *Error.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []Turn, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &Error{Kind: KindFatal, Code: CodeProvider, err: errors.New("empty message")}
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		text, err := c.generate(attemptCtx, systemPrompt, history, message)
		cancel()

		if err == nil {
			return strings.TrimSpace(text), nil
		}

		perr := Classify(err)
		if !perr.Retryable() {
			c.logger.Warn("completion failed",
				slog.String("kind", perr.Kind.String()),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return "", perr
		}

		lastErr = perr
		c.logger.Warn("completion attempt failed, will retry",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.maxAttempts),
			slog.Any("error", err))

		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, time.Duration(attempt)*c.backoffStep); err != nil {
			// Caller gave up while we were backing off.
			break
		}
	}

	// Retry budget exhausted on transient failures: degrade silently so
	// the caller can fall back to the knowledge base.
	c.logger.Warn("completion retries exhausted, degrading",
		slog.Int("attempts", c.maxAttempts),
		slog.Any("last_error", lastErr))
	return "", nil
}

// initGenkit performs the one-time Genkit/plugin setup. Idempotent;
// the error (if any) is replayed to every caller.
func (c *Client) initGenkit(ctx context.Context) error {
	c.initOnce.Do(func() {
		g := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{APIKey: c.apiKey}))
		if g == nil {
			c.initErr = errors.New("genkit initialization failed")
			return
		}
		c.g = g
		c.logger.Info("completion provider initialized", slog.String("model", c.modelName))
	})
	return c.initErr
}

// generateGenkit is the production generateFunc.
func (c *Client) generateGenkit(ctx context.Context, systemPrompt string, history []Turn, message string) (string, error) {
	if err := c.initGenkit(ctx); err != nil {
		return "", err
	}

	messages := make([]*ai.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
		}
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName("openai/"+c.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithPrompt(message),
		ai.WithConfig(map[string]any{
			"temperature": c.temperature,
			"max_tokens":  c.maxTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Text(), nil
}

// sleepCtx sleeps for d unless ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
