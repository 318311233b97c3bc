// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.blog-backend/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Assistant: completion model, temperature, token budget, default language
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: listen address, CORS origins, inbound rate limit, proxy trust
//
// Security: the OpenAI API key and the PostgreSQL password are read from the
// environment and never logged.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the OpenAI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidLanguage indicates the default language is not supported.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidServerPort indicates the HTTP listen port is out of range.
	ErrInvalidServerPort = errors.New("invalid server port")

	// ErrInvalidRateLimit indicates the inbound rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// Supported assistant languages.
const (
	LangZH = "zh"
	LangEN = "en"
)

// Config stores application configuration.
// SECURITY: sensitive values (API key, database password) come from the
// environment only and must never be serialized or logged.
type Config struct {
	// Assistant configuration
	ModelName   string  `mapstructure:"model_name"`  // OpenAI model identifier (e.g., "gpt-4o-mini")
	Temperature float32 `mapstructure:"temperature"` // Sampling temperature, 0.0–2.0
	MaxTokens   int     `mapstructure:"max_tokens"`  // Completion length budget
	Language    string  `mapstructure:"language"`    // Default reply language: "zh" or "en"

	// HTTP server configuration
	ServerHost  string   `mapstructure:"server_host"`
	ServerPort  int      `mapstructure:"server_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (set true behind reverse proxy)

	// Inbound rate limit: RateLimitRequests per RateLimitWindowMinutes per IP.
	RateLimitRequests      int `mapstructure:"rate_limit_requests"`
	RateLimitWindowMinutes int `mapstructure:"rate_limit_window_minutes"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".blog-backend")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Assistant defaults
	v.SetDefault("model_name", "gpt-4o-mini")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 1000)
	v.SetDefault("language", LangZH)

	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)

	// Rate limit: 30 requests per 15-minute window per IP
	v.SetDefault("rate_limit_requests", 30)
	v.SetDefault("rate_limit_window_minutes", 15)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "blog")
	v.SetDefault("postgres_password", "blog_dev_password")
	v.SetDefault("postgres_db_name", "blog")
	v.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment variable overrides.
// Secrets (OPENAI_API_KEY, DATABASE_URL) are read directly from the
// environment, not through viper, so they never land in config files.
func bindEnvVariables(v *viper.Viper) {
	v.SetEnvPrefix("BLOG")
	v.AutomaticEnv()
}

// OpenAIAPIKey returns the OpenAI API key from the environment.
func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// ServerAddr returns the host:port listen address for the HTTP server.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
