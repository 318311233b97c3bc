package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/blog-backend/internal/knowledge"
	"github.com/koopa0/blog-backend/internal/recorder"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    *slog.Logger
	Knowledge *knowledge.Base    // Required
	Completer Completer          // Required
	Sessions  Sessions           // Required
	Recorder  *recorder.Recorder // Required
	Pool      *pgxpool.Pool      // Optional: nil degrades /ready to plain ok

	CORSOrigins []string // Allowed origins for CORS
	IsDev       bool     // Disables HSTS
	TrustProxy  bool     // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)

	// RateLimitRequests per RateLimitWindow per IP. Zero values take
	// the defaults (30 requests / 15 minutes).
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Knowledge == nil {
		return nil, errors.New("knowledge base is required")
	}
	if cfg.Completer == nil {
		return nil, errors.New("completer is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Recorder == nil {
		return nil, errors.New("recorder is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		logger:    logger,
		kb:        cfg.Knowledge,
		completer: cfg.Completer,
		sessions:  cfg.Sessions,
		recorder:  cfg.Recorder,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)

	requests := cfg.RateLimitRequests
	if requests <= 0 {
		requests = 30
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	rl := newRateLimiter(requests, window)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
