package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/config"
)

// NewClient creates the generation client selected by configuration.
// Supported providers: "openai" (also covers OpenAI-compatible endpoints)
// and "anthropic".
func NewClient(cfg *config.GenerationConfig, logger *zap.Logger) (Client, error) {
	clientCfg := &Config{
		Endpoint:    cfg.Endpoint,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Temperature: cfg.Temperature,
	}

	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(clientCfg, logger)
	case "anthropic":
		return NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
