package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4":       "gpt-4o",
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

const openaiDefaultModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAI gateway.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible APIs
	Model   string
}

// OpenAIGateway implements Gateway using the OpenAI SDK.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

// NewOpenAIGateway creates a new OpenAI gateway.
func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, &ErrConfiguration{Err: fmt.Errorf("openai API key is required")}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(config),
		model:  resolveModel(cfg.Model, openaiModels, openaiDefaultModel),
	}, nil
}

func (g *OpenAIGateway) GenerateAnswer(ctx context.Context, question string, qctx Context) (*Answer, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(question, qctx)},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, mapOpenAIError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ErrTransient{Err: fmt.Errorf("no choices in OpenAI response")}
	}

	return &Answer{
		Text:       resp.Choices[0].Message.Content,
		ProviderID: g.ProviderID(),
	}, nil
}

// ProviderID identifies the configured model.
func (g *OpenAIGateway) ProviderID() string {
	return "openai/" + g.model
}

func mapOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &ErrTransient{Err: err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrQuotaExceeded{Err: err}
		case apiErr.HTTPStatusCode == http.StatusUnauthorized,
			apiErr.HTTPStatusCode == http.StatusForbidden:
			return &ErrConfiguration{Err: err}
		}
	}
	return &ErrTransient{Err: err}
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, m map[string]string, fallback string) string {
	if name == "" {
		return fallback
	}
	if id, ok := m[name]; ok {
		return id
	}
	// Not in the map: use as-is (allows direct model IDs).
	return name
}
