package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind tags a provider failure. The tag is decided exactly once, at this
// adapter boundary, so callers never re-parse raw provider error shapes.
type Kind int

const (
	// KindTransient is a retryable network-level failure (connection
	// reset, timeout, DNS/proxy trouble).
	KindTransient Kind = iota

	// KindRateLimited means the provider refused the request rate.
	KindRateLimited

	// KindQuota means the account's capacity or quota is exhausted.
	KindQuota

	// KindFatal is an authoritative failure (auth, malformed request)
	// that retrying cannot fix.
	KindFatal
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindQuota:
		return "quota_exceeded"
	default:
		return "fatal"
	}
}

// Error is the structured provider failure surfaced to callers.
// Check with errors.As:
//
//	var perr *provider.Error
//	if errors.As(err, &perr) && perr.Kind == provider.KindRateLimited { ... }
type Error struct {
	Kind Kind
	Code string // machine-readable condition: "rate_limited", "quota_exceeded", "provider_error"
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Retryable reports whether the failure should trigger another attempt.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient
}

// Error code constants for Error.Code.
const (
	CodeRateLimited = "rate_limited"
	CodeQuota       = "quota_exceeded"
	CodeProvider    = "provider_error"
	CodeTransient   = "transient"
)

// Pattern groups matched case-insensitively against err.Error().
//
// NOTE: string matching is used because Genkit and the OpenAI SDK do not
// expose typed/sentinel errors for these conditions. This is the one
// documented exception to the project rule against
// strings.Contains(err.Error(), ...). Re-evaluate if Genkit adds
// structured error types.
var (
	quotaPatterns = []string{
		"quota", "insufficient_quota", "billing", "capacity", "credit",
	}
	rateLimitPatterns = []string{
		"rate limit", "rate_limit", "too many requests", "429",
	}
	transientPatterns = []string{
		"connection reset", "connection refused", "broken pipe",
		"timeout", "timed out", "deadline exceeded",
		"no such host", "dns", "proxy", "temporar",
		"502", "503", "504", "unavailable", "unexpected eof", "econnreset",
	}
)

// Classify maps a raw error from the completion call into a tagged
// Error. Anything unrecognized is fatal: better to surface an
// operator-actionable condition than to retry blindly.
func Classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransient, Code: CodeTransient, err: err}
	}

	msg := strings.ToLower(err.Error())

	if containsAny(msg, quotaPatterns) {
		return &Error{Kind: KindQuota, Code: CodeQuota, err: err}
	}
	if containsAny(msg, rateLimitPatterns) {
		return &Error{Kind: KindRateLimited, Code: CodeRateLimited, err: err}
	}
	if containsAny(msg, transientPatterns) {
		return &Error{Kind: KindTransient, Code: CodeTransient, err: err}
	}

	return &Error{Kind: KindFatal, Code: CodeProvider, err: err}
}

// containsAny checks if s contains any of the substrings.
// s must already be lowercase.
func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
