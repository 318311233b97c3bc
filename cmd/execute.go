// Package cmd contains the command-line entry points for the blog
// backend. main.go stays a minimal shim; all routing and wiring lives
// here.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/koopa0/blog-backend/internal/log"
)

// Execute is the main entry point. It routes the first argument to a
// command; with no argument the HTTP server starts.
func Execute() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			printVersion()
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "serve":
			// fall through to the default below
		default:
			printHelp()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	logger := initLogger()
	slog.SetDefault(logger)

	return runServe(logger)
}

// initLogger builds the process logger.
//
// DEBUG (any value) lowers the level to debug. BLOG_LOG_FORMAT=json
// switches to JSON output for log aggregation.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{
		Level: level,
		JSON:  os.Getenv("BLOG_LOG_FORMAT") == "json",
	})
}

func printHelp() {
	fmt.Println(`blog-backend - portfolio site assistant API

Usage:
  blog-backend [serve]   start the HTTP API server (default)
  blog-backend version   print version information
  blog-backend help      show this help

Environment:
  OPENAI_API_KEY    completion provider credential (required for serve)
  DATABASE_URL      postgres connection URL (overrides BLOG_POSTGRES_*)
  BLOG_*            overrides for any config.yaml key
  DEBUG             enable debug logging
  BLOG_LOG_FORMAT   "json" for JSON log output`)
}
