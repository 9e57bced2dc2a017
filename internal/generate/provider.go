package generate

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call a chat model. It mirrors
// the CreateChatCompletion method so any OpenAI-compatible backend (hosted or
// local) can be adapted without touching the generator.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts *openai.Client to the Client interface.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

// NewOpenAIProvider builds a provider for an OpenAI-compatible endpoint.
// baseURL may be empty for the default OpenAI API.
func NewOpenAIProvider(baseURL, apiKey string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}
