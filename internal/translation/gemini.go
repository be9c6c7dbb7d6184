package translation

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend translates with a Gemini model
type GeminiBackend struct {
	model  string
	client *genai.Client
}

// NewGeminiBackend creates a Gemini translation backend
func NewGeminiBackend(ctx context.Context, config *Config) (*GeminiBackend, error) {
	if config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" || model == DefaultConfig().Model {
		model = "gemini-2.0-flash"
	}

	return &GeminiBackend{model: model, client: client}, nil
}

// Translate translates one sentence
func (b *GeminiBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	var temperature float32
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt(text, sourceLang, targetLang)), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	out := resp.Text()
	if out == "" {
		return "", fmt.Errorf("no translation returned")
	}
	return cleanOutput(out), nil
}

// Name returns the backend name
func (b *GeminiBackend) Name() string { return "gemini" }
