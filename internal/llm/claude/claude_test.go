package claude

import (
	"testing"

	"github.com/gfranco/carteira/internal/llm"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(llm.Options{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New(llm.Options{APIKey: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model == "" {
		t.Error("expected a default model")
	}
	if p.Name() != "claude" {
		t.Errorf("name = %s", p.Name())
	}
}

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}
