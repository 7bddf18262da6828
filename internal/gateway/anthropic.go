package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicModels maps friendly names to Anthropic model IDs.
var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

const anthropicDefaultModel = "claude-haiku-4-5-20251001"

// AnthropicConfig configures the Anthropic gateway.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicGateway implements Gateway using the Anthropic SDK.
type AnthropicGateway struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicGateway creates a new Anthropic gateway.
func NewAnthropicGateway(cfg AnthropicConfig) (*AnthropicGateway, error) {
	if cfg.APIKey == "" {
		return nil, &ErrConfiguration{Err: fmt.Errorf("anthropic API key is required")}
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return &AnthropicGateway{
		client: &client,
		model:  resolveModel(cfg.Model, anthropicModels, anthropicDefaultModel),
	}, nil
}

func (g *AnthropicGateway) GenerateAnswer(ctx context.Context, question string, qctx Context) (*Answer, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1000,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(buildPrompt(question, qctx)),
				},
			},
		},
		Temperature: anthropic.Float(0.7),
	})
	if err != nil {
		return nil, mapAnthropicError(ctx, err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return &Answer{
				Text:       block.Text,
				ProviderID: g.ProviderID(),
			}, nil
		}
	}
	return nil, &ErrTransient{Err: fmt.Errorf("no text content in Anthropic response")}
}

// ProviderID identifies the configured model.
func (g *AnthropicGateway) ProviderID() string {
	return "anthropic/" + g.model
}

func mapAnthropicError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &ErrTransient{Err: err}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &ErrQuotaExceeded{Err: err}
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden:
			return &ErrConfiguration{Err: err}
		}
	}
	return &ErrTransient{Err: err}
}
