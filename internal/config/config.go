// Package config loads settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the course assistant.
type Config struct {
	// Model provider
	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"anthropic"` // anthropic, openai or gemini
	LLMModel        string `envconfig:"LLM_MODEL"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	GoogleAPIKey    string `envconfig:"GOOGLE_API_KEY"`
	MaxTokens       int    `envconfig:"MAX_TOKENS" default:"800"`
	RoundBudget     int    `envconfig:"ROUND_BUDGET" default:"2"`

	// Retrieval
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"800"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" default:"100"`
	MaxResults   int    `envconfig:"MAX_RESULTS" default:"5"`
	StorePath    string `envconfig:"STORE_PATH" default:"./data/courses.db"`
	DocsPath     string `envconfig:"DOCS_PATH" default:"../docs"`

	// Sessions
	MaxHistory    int    `envconfig:"MAX_HISTORY" default:"2"`
	HistoryBudget int    `envconfig:"HISTORY_BUDGET" default:"4000"` // estimated size cap for history; 0 disables
	SessionDriver string `envconfig:"SESSION_DRIVER" default:"sqlite3"` // sqlite3, postgres, file or memory
	SessionDSN    string `envconfig:"SESSION_DSN" default:"./data/sessions.db"`

	// Server
	Port string `envconfig:"PORT" default:"8000"`

	// Resilience
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoffMS      int `envconfig:"RETRY_INITIAL_BACKOFF_MS" default:"200"`
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetSeconds int `envconfig:"CIRCUIT_BREAKER_RESET_SECONDS" default:"30"`

	// Observability
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv skips the .env file.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	if c.LLMProvider == "" {
		c.LLMProvider = "anthropic"
	}
	if c.APIKey() == "" {
		switch c.LLMProvider {
		case "anthropic":
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		case "openai":
			return fmt.Errorf("OPENAI_API_KEY is required")
		case "gemini", "google":
			return fmt.Errorf("GOOGLE_API_KEY is required")
		default:
			return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
		}
	}
	if c.RoundBudget < 0 {
		return fmt.Errorf("ROUND_BUDGET must be >= 0, got %d", c.RoundBudget)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	switch c.SessionDriver {
	case "sqlite3", "postgres", "file", "memory":
	default:
		return fmt.Errorf("unknown SESSION_DRIVER %q", c.SessionDriver)
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "gemini", "google":
		return c.GoogleAPIKey
	}
	return ""
}

func (c *Config) RetryInitialBackoff() time.Duration {
	return time.Duration(c.RetryInitialBackoffMS) * time.Millisecond
}

func (c *Config) CircuitBreakerReset() time.Duration {
	return time.Duration(c.CircuitBreakerResetSeconds) * time.Second
}
