package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gfranco/carteira/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
watchlist:
  - symbol: PETR3.SA
    name: Petrobras
    sector: Petróleo & Gás
llm:
  provider: openai
  openai:
    api_key: test-key
    model: llama-3.3-70b-versatile
narrative:
  stage_delay: 5s
notifiers:
  telegram:
    enabled: true
    bot_token: "123:abc"
    chat_id: "-100"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Watchlist) != 1 || cfg.Watchlist[0].Symbol != "PETR3.SA" {
		t.Errorf("unexpected watchlist: %+v", cfg.Watchlist)
	}
	if cfg.LLM.OpenAI.APIKey != "test-key" {
		t.Errorf("api key not loaded: %q", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.Narrative.StageDelay != 5*time.Second {
		t.Errorf("stage_delay = %v, want 5s", cfg.Narrative.StageDelay)
	}
	// Defaults survive partial configs.
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CARTEIRA_TEST_KEY", "from-env")
	path := writeConfig(t, `
llm:
  provider: openai
  openai:
    api_key: ${CARTEIRA_TEST_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "from-env" {
		t.Errorf("api_key = %q, want env expansion", cfg.LLM.OpenAI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if len(cfg.Watchlist) != 7 {
		t.Errorf("default watchlist size = %d, want 7", len(cfg.Watchlist))
	}
	if len(cfg.Correlations) != 3 {
		t.Errorf("default correlations = %d, want 3", len(cfg.Correlations))
	}
	if cfg.Narrative.StageDelay != 20*time.Second {
		t.Errorf("default stage_delay = %v, want 20s", cfg.Narrative.StageDelay)
	}
	if cfg.LLM.OpenAI.MaxRetries != 5 {
		t.Errorf("default max_retries = %d, want 5", cfg.LLM.OpenAI.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.LLM.OpenAI.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr *core.Error
	}{
		{"valid", func(c *Config) {}, nil},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"empty watchlist", func(c *Config) { c.Watchlist = nil }, core.ErrConfigMissing},
		{"missing llm key", func(c *Config) { c.LLM.OpenAI.APIKey = "" }, core.ErrConfigMissing},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "what" }, core.ErrConfigInvalid},
		{"no provider", func(c *Config) { c.LLM.Provider = "" }, core.ErrConfigMissing},
		{"telegram enabled incomplete", func(c *Config) {
			c.Notifiers.Telegram.Enabled = true
		}, core.ErrConfigMissing},
		{"email enabled incomplete", func(c *Config) {
			c.Notifiers.Email.Enabled = true
		}, core.ErrConfigMissing},
		{"webhook enabled incomplete", func(c *Config) {
			c.Notifiers.Webhook.Enabled = true
		}, core.ErrConfigMissing},
		{"bad archive", func(c *Config) { c.Archive.Type = "ftp" }, core.ErrConfigInvalid},
		{"negative delay", func(c *Config) { c.Narrative.StageDelay = -time.Second }, core.ErrConfigInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want code %s", err, tc.wantErr.Code)
			}
		})
	}
}

func TestAssets(t *testing.T) {
	cfg := Defaults()
	assets := cfg.Assets()

	if len(assets) != len(cfg.Watchlist) {
		t.Fatalf("assets = %d, want %d", len(assets), len(cfg.Watchlist))
	}
	if assets[0].Ticker != "CXSE3" {
		t.Errorf("ticker = %s, want CXSE3", assets[0].Ticker)
	}
	last := assets[len(assets)-1]
	if last.Ticker != "BTC" || !last.IsCrypto() {
		t.Errorf("expected BTC crypto asset, got %+v", last)
	}
}
