package factory

import (
	"testing"

	"github.com/gfranco/carteira/internal/config"
)

func TestNew_OpenAI(t *testing.T) {
	p, err := New(config.LLMConfig{
		Provider: "openai",
		OpenAI:   config.OpenAIConfig{APIKey: "key", BaseURL: "https://api.groq.com/openai/v1"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("name = %s", p.Name())
	}
}

func TestNew_OpenAI_MissingKey(t *testing.T) {
	if _, err := New(config.LLMConfig{Provider: "openai"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestNew_Ollama(t *testing.T) {
	p, err := New(config.LLMConfig{Provider: "ollama"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("name = %s", p.Name())
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New(config.LLMConfig{Provider: "groqqq"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
