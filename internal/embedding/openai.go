package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/xamr/internal/breaker"
	"codeberg.org/snonux/xamr/internal/metrics"
)

// OpenAIEmbedder calls the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
	breaker   *breaker.Breaker
}

// NewOpenAIEmbedder creates an OpenAI embedder
func NewOpenAIEmbedder(config *Config) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		batchSize: config.BatchSize,
		breaker:   breaker.New(breaker.DefaultSettings("openai-embeddings")),
	}, nil
}

// Embed embeds sentences in batches, preserving input order
func (e *OpenAIEmbedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	out := make([][]float32, len(sentences))

	for _, b := range batches(len(sentences), e.batchSize) {
		input := make([]string, 0, b[1]-b[0])
		for _, s := range sentences[b[0]:b[1]] {
			// the endpoint rejects empty strings
			if s == "" {
				s = " "
			}
			input = append(input, s)
		}

		start := time.Now()
		resp, err := breaker.Call(e.breaker, func() (openai.EmbeddingResponse, error) {
			return e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: input,
				Model: openai.EmbeddingModel(e.model),
			})
		})
		metrics.ObserveCall("embedding", start)
		if err != nil {
			return nil, fmt.Errorf("OpenAI embeddings API error: %w", err)
		}

		if len(resp.Data) != len(input) {
			return nil, fmt.Errorf("OpenAI returned %d embeddings for %d sentences", len(resp.Data), len(input))
		}
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(input) {
				return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
			}
			out[b[0]+d.Index] = d.Embedding
		}
	}

	return out, nil
}

// Name returns the backend name
func (e *OpenAIEmbedder) Name() string { return "openai:" + e.model }
