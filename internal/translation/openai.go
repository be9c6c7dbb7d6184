package translation

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend translates with an OpenAI chat model
type OpenAIBackend struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAIBackend creates an OpenAI translation backend
func NewOpenAIBackend(config *Config) (*OpenAIBackend, error) {
	if config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIBackend{
		apiKey: config.APIKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

// Translate translates one sentence
func (b *OpenAIBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a professional translator. Translate faithfully and keep the sentence structure.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt(text, sourceLang, targetLang),
			},
		},
		MaxTokens:   512,
		Temperature: 0,
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return cleanOutput(resp.Choices[0].Message.Content), nil
}

// Name returns the backend name
func (b *OpenAIBackend) Name() string { return "openai" }
