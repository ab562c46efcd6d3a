package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/stockgpt/stockgpt/config"
)

// ErrNotConfigured is returned when no API key is present for the
// selected provider. Handlers turn it into a 500 with a setup hint.
var ErrNotConfigured = errors.New("chat model not configured, set OPENAI_API_KEY or DEEPSEEK_API_KEY in your .env file")

const (
	defaultMaxTokens   = 1500
	defaultTemperature = float32(0.7)
)

// NewChatModel builds the chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	if !cfg.ChatConfigured() {
		return nil, ErrNotConfigured
	}

	switch cfg.LLMProvider {
	case "deepseek":
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.ChatModel,
			MaxTokens: defaultMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek model: %w", err)
		}
		return cm, nil
	default:
		maxTokens := defaultMaxTokens
		temperature := defaultTemperature
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.ChatModel,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return cm, nil
	}
}
