package llm

import (
	"context"
	"time"
)

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Options configures a provider. Every provider is bounded: requests
// time out and retries are capped, so a stuck upstream can only fail
// the calling stage, never hang the run.
type Options struct {
	APIKey     string
	BaseURL    string // OpenAI-compatible endpoints (e.g. Groq)
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}
