package llm

import (
	"context"
	"fmt"

	"github.com/dgallion1/firdesk/internal/config"
)

// New returns the generator named by cfg.LLMProvider.
func New(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel), nil
	case "claude":
		return NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}
