// internal/llm/openai/openai.go
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gfranco/carteira/internal/llm"
	"github.com/sashabaranov/go-openai"
)

// Provider implements the LLM interface for OpenAI and OpenAI-compatible
// endpoints such as Groq (set Options.BaseURL).
type Provider struct {
	client     *openai.Client
	model      string
	maxRetries int
	backoff    time.Duration
}

// New creates a new OpenAI provider.
func New(opts llm.Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	model := opts.Model
	if model == "" {
		model = "gpt-4o"
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Provider{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: opts.MaxRetries,
		backoff:    15 * time.Second,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Chat sends a chat request, retrying transient failures up to the
// configured bound before giving up.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.backoff):
			}
		}

		resp, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		content := ""
		finishReason := ""
		if len(resp.Choices) > 0 {
			content = resp.Choices[0].Message.Content
			finishReason = string(resp.Choices[0].FinishReason)
		}

		return &llm.ChatResponse{
			Content: content,
			Usage: llm.Usage{
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
			},
			FinishReason: finishReason,
		}, nil
	}

	return nil, fmt.Errorf("openai API error after %d attempts: %w", p.maxRetries+1, lastErr)
}
