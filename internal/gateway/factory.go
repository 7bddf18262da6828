package gateway

import "fmt"

// Config selects and configures a provider.
type Config struct {
	Provider  string // "openai", "anthropic", "mock"
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
}

// New creates a Gateway from configuration.
func New(cfg Config) (Gateway, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGateway(cfg.OpenAI)
	case "anthropic":
		return NewAnthropicGateway(cfg.Anthropic)
	case "mock":
		return NewMockGateway(), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider: %q", cfg.Provider)
	}
}
