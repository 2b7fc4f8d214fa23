package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gfranco/carteira/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig     `mapstructure:"server"`
	Watchlist    []WatchlistItem  `mapstructure:"watchlist"`
	Correlations []CorrelationRef `mapstructure:"correlations"`
	LLM          LLMConfig        `mapstructure:"llm"`
	Narrative    NarrativeConfig  `mapstructure:"narrative"`
	Notifiers    NotifiersConfig  `mapstructure:"notifiers"`
	Archive      ArchiveConfig    `mapstructure:"archive"`
	Metrics      MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// WatchlistItem is one configured asset. Membership is fixed per run.
type WatchlistItem struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
	Sector string `mapstructure:"sector"`
}

// CorrelationRef is a macro reference tracked alongside the watch-list.
type CorrelationRef struct {
	Name   string `mapstructure:"name"`
	Symbol string `mapstructure:"symbol"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

// OpenAIConfig also covers OpenAI-compatible endpoints (Groq) via BaseURL.
type OpenAIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ClaudeConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type OllamaConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// NarrativeConfig controls the two-stage report generation.
type NarrativeConfig struct {
	// StageDelay is the mandatory pause between the analysis and
	// recommendation calls, throttling against the upstream rate limit.
	StageDelay time.Duration `mapstructure:"stage_delay"`
}

type NotifiersConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults: the stock B3
// watch-list of the weekly report plus the IBOV/USD/BTC references.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Watchlist: []WatchlistItem{
			{Symbol: "CXSE3.SA", Name: "Caixa Seguridade", Sector: "Seguros & Financeiro"},
			{Symbol: "RANI3.SA", Name: "Irani", Sector: "Papel & Embalagens"},
			{Symbol: "TAEE3.SA", Name: "Taesa", Sector: "Energia Elétrica"},
			{Symbol: "CSAN3.SA", Name: "Cosan", Sector: "Energia & Logística"},
			{Symbol: "BBAS3.SA", Name: "Banco do Brasil", Sector: "Financeiro"},
			{Symbol: "PETR3.SA", Name: "Petrobras", Sector: "Petróleo & Gás"},
			{Symbol: "BTC-USD", Name: "Bitcoin", Sector: "Criptomoeda"},
		},
		Correlations: []CorrelationRef{
			{Name: "IBOV", Symbol: "^BVSP"},
			{Name: "Dólar", Symbol: "USDBRL=X"},
			{Name: "BTC", Symbol: "BTC-USD"},
		},
		LLM: LLMConfig{
			Provider: "openai",
			OpenAI: OpenAIConfig{
				BaseURL:    "https://api.groq.com/openai/v1",
				Model:      "llama-3.3-70b-versatile",
				MaxRetries: 5,
				Timeout:    120 * time.Second,
			},
			Claude: ClaudeConfig{
				MaxRetries: 5,
				Timeout:    120 * time.Second,
			},
			Ollama: OllamaConfig{
				Timeout: 5 * time.Minute,
			},
		},
		Narrative: NarrativeConfig{
			StageDelay: 20 * time.Second,
		},
		Notifiers: NotifiersConfig{
			Email: EmailConfig{
				Host: "smtp.gmail.com",
				Port: 465,
			},
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "./reports",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if len(c.Watchlist) == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("watchlist cannot be empty"))
	}
	for _, item := range c.Watchlist {
		if item.Symbol == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("watchlist item without symbol"))
		}
	}

	// LLM validation - the credential is a hard precondition for
	// narrative and sentiment generation.
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "ollama":
		if c.LLM.Ollama.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("ollama endpoint required when provider is ollama"))
		}
	case "":
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm provider is required"))
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
	}

	if c.Narrative.StageDelay < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("narrative stage_delay cannot be negative"))
	}

	if c.Notifiers.Telegram.Enabled {
		if c.Notifiers.Telegram.BotToken == "" || c.Notifiers.Telegram.ChatID == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("telegram bot_token and chat_id required when enabled"))
		}
	}
	if c.Notifiers.Email.Enabled {
		e := c.Notifiers.Email
		if e.Host == "" || e.From == "" || e.Password == "" || len(e.To) == 0 {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("email host, from, password and to required when enabled"))
		}
	}
	if c.Notifiers.Webhook.Enabled && c.Notifiers.Webhook.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("webhook url required when enabled"))
	}

	switch c.Archive.Type {
	case "localfs", "s3", "":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %s", c.Archive.Type))
	}

	return nil
}

// Assets converts the watch-list into core assets.
func (c *Config) Assets() []core.Asset {
	assets := make([]core.Asset, 0, len(c.Watchlist))
	for _, item := range c.Watchlist {
		assets = append(assets, core.Asset{
			Symbol: item.Symbol,
			Ticker: core.DisplayTicker(item.Symbol),
			Name:   item.Name,
			Sector: item.Sector,
		})
	}
	return assets
}
