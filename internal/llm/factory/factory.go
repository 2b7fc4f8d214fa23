// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/gfranco/carteira/internal/config"
	"github.com/gfranco/carteira/internal/llm"
	"github.com/gfranco/carteira/internal/llm/claude"
	"github.com/gfranco/carteira/internal/llm/ollama"
	"github.com/gfranco/carteira/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(llm.Options{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			MaxRetries: cfg.OpenAI.MaxRetries,
			Timeout:    cfg.OpenAI.Timeout,
		})
	case "claude":
		return claude.New(llm.Options{
			APIKey:     cfg.Claude.APIKey,
			Model:      cfg.Claude.Model,
			MaxRetries: cfg.Claude.MaxRetries,
			Timeout:    cfg.Claude.Timeout,
		})
	case "ollama":
		return ollama.New(llm.Options{
			BaseURL: cfg.Ollama.Endpoint,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.Ollama.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
