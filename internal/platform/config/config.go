// Package config loads application configuration from environment variables.
// All variables use the SPARK_ prefix.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Session     SessionConfig
	AI          AIConfig
	Log         LogConfig
	ContentPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// disables the event log.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL keeps sessions
// in process memory.
type CacheConfig struct {
	URL string
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTLMinutes   int
	SecureCookie bool
}

// TTL returns the idle lifetime of a session.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// AIConfig holds configuration for the completion providers.
type AIConfig struct {
	Groq               ProviderConfig
	OpenAI             ProviderConfig
	SessionTokenBudget int // 0 means unlimited
}

// ProviderConfig holds one OpenAI-compatible provider's settings.
type ProviderConfig struct {
	APIKey string
	Model  string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// LoadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables with SPARK_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SPARK_SERVER_PORT", 8080),
			Host: envStr("SPARK_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("SPARK_DATABASE_URL", ""),
			MaxConns: envInt("SPARK_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("SPARK_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("SPARK_CACHE_URL", ""),
		},
		Session: SessionConfig{
			TTLMinutes:   envInt("SPARK_SESSION_TTL_MINUTES", 120),
			SecureCookie: envBool("SPARK_SESSION_SECURE_COOKIE", false),
		},
		AI: AIConfig{
			Groq: ProviderConfig{
				APIKey: envStr("SPARK_AI_GROQ_API_KEY", ""),
				Model:  envStr("SPARK_AI_GROQ_MODEL", "llama-3.3-70b-versatile"),
			},
			OpenAI: ProviderConfig{
				APIKey: envStr("SPARK_AI_OPENAI_API_KEY", ""),
				Model:  envStr("SPARK_AI_OPENAI_MODEL", "gpt-4o-mini"),
			},
			SessionTokenBudget: envInt("SPARK_AI_SESSION_TOKEN_BUDGET", 0),
		},
		Log: LogConfig{
			Level:  envStr("SPARK_LOG_LEVEL", "info"),
			Format: envStr("SPARK_LOG_FORMAT", "json"),
		},
		ContentPath: envStr("SPARK_CONTENT_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. A missing AI key is
// allowed; the chat then reports the missing key to the user.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SPARK_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("SPARK_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("SPARK_SESSION_TTL_MINUTES must be positive, got %d", c.Session.TTLMinutes)
	}
	if c.AI.SessionTokenBudget < 0 {
		return fmt.Errorf("SPARK_AI_SESSION_TOKEN_BUDGET must not be negative, got %d", c.AI.SessionTokenBudget)
	}
	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Groq.APIKey != "" || c.AI.OpenAI.APIKey != ""
}

// NewLogger builds the process logger from the log settings.
func (l LogConfig) NewLogger() *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("SPARK_LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
