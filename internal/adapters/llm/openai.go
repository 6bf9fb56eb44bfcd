package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
)

// Base URLs of OpenAI-compatible chat completion APIs.
const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIAdapter implements ports.CompletionService for any backend that
// speaks the OpenAI chat completions protocol (Groq, OpenAI, vLLM, ...).
type OpenAIAdapter struct {
	provider string
	model    string
	client   *openai.Client
}

// OpenAIOptions configures an OpenAIAdapter.
type OpenAIOptions struct {
	Provider string // Name used in errors and metrics
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewOpenAIAdapter creates an adapter. Empty BaseURL targets Groq.
func NewOpenAIAdapter(opts OpenAIOptions) (*OpenAIAdapter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if opts.Provider == "" {
		opts.Provider = "groq"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = GroqBaseURL
	}
	if opts.Model == "" {
		opts.Model = "llama-3.1-8b-instant"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = opts.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIAdapter{
		provider: opts.Provider,
		model:    opts.Model,
		client:   openai.NewClientWithConfig(cfg),
	}, nil
}

// Name identifies the backend.
func (a *OpenAIAdapter) Name() string { return a.provider }

// Complete issues one non-streaming chat completion.
func (a *OpenAIAdapter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", &entities.GenerationError{Provider: a.provider, Model: model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &entities.GenerationError{
			Provider: a.provider,
			Model:    model,
			Err:      fmt.Errorf("no choices in response"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}
