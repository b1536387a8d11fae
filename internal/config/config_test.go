package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("unexpected provider %q", cfg.LLMProvider)
	}
	if cfg.RoundBudget != 2 || cfg.MaxTokens != 800 || cfg.MaxHistory != 2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ChunkSize != 800 || cfg.ChunkOverlap != 100 || cfg.MaxResults != 5 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg)
	}
	if cfg.HistoryBudget != 4000 {
		t.Errorf("HistoryBudget = %d", cfg.HistoryBudget)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.RetryInitialBackoff() != 200*time.Millisecond || cfg.CircuitBreakerReset() != 30*time.Second {
		t.Errorf("unexpected resilience durations")
	}
}

func TestLoadFromEnv_MissingProviderKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error when OPENAI_API_KEY is missing")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			LLMProvider: "Gemini", GoogleAPIKey: "k",
			ChunkSize: 800, ChunkOverlap: 100, RoundBudget: 2, SessionDriver: "memory",
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "cohere" }, true},
		{"negative budget", func(c *Config) { c.RoundBudget = -1 }, true},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 800 }, true},
		{"bad session driver", func(c *Config) { c.SessionDriver = "redis" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIKeySelectsProvider(t *testing.T) {
	c := Config{LLMProvider: "openai", OpenAIAPIKey: "o", AnthropicAPIKey: "a"}
	if c.APIKey() != "o" {
		t.Errorf("APIKey() = %q", c.APIKey())
	}
}
