// Package provider adapts model vendor SDKs to the runner's ModelClient.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	aoption "github.com/anthropics/anthropic-sdk-go/option"
	ooption "github.com/openai/openai-go/option"

	"github.com/petasbytes/course-rag/internal/runner"
)

const DefaultMaxTokens = 800

type Config struct {
	Provider  string // anthropic, openai or gemini
	Model     string
	APIKey    string
	MaxTokens int
}

// New returns the ModelClient for cfg.Provider.
func New(ctx context.Context, cfg Config) (runner.ModelClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		var opts []aoption.RequestOption
		if cfg.APIKey != "" {
			opts = append(opts, aoption.WithAPIKey(cfg.APIKey))
		}
		return NewAnthropic(cfg.Model, cfg.MaxTokens, opts...), nil
	case "openai":
		var opts []ooption.RequestOption
		if cfg.APIKey != "" {
			opts = append(opts, ooption.WithAPIKey(cfg.APIKey))
		}
		return NewOpenAI(cfg.Model, cfg.MaxTokens, opts...), nil
	case "gemini", "google":
		return NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// nonEmpty keeps providers that reject empty text parts happy.
func nonEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

// argumentsJSON encodes tool input the way chat-completion APIs expect it: a JSON object string.
func argumentsJSON(input map[string]any) string {
	if input == nil {
		return "{}"
	}
	b, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// decodeToolInput parses model-supplied tool arguments. Malformed arguments are
// logged with the raw payload and decode to an empty object, so the tool
// reports its own missing-parameter error back to the model.
func decodeToolInput(provider, tool string, raw []byte) map[string]any {
	input := map[string]any{}
	if len(raw) == 0 {
		return input
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		log.Warn().
			Err(err).
			Str("provider", provider).
			Str("tool", tool).
			Str("arguments", string(raw)).
			Msg("Malformed tool arguments")
		return map[string]any{}
	}
	return input
}
