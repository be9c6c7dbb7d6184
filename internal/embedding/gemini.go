package embedding

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"codeberg.org/snonux/xamr/internal/breaker"
	"codeberg.org/snonux/xamr/internal/metrics"
)

// GeminiEmbedder calls the Gemini embedContent endpoint
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	batchSize int
	breaker   *breaker.Breaker
}

// NewGeminiEmbedder creates a Gemini embedder
func NewGeminiEmbedder(ctx context.Context, config *Config) (*GeminiEmbedder, error) {
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
		model = "text-embedding-004"
	}

	batchSize := config.BatchSize
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
		breaker:   breaker.New(breaker.DefaultSettings("gemini-embeddings")),
	}, nil
}

// Embed embeds sentences in batches, preserving input order
func (e *GeminiEmbedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	out := make([][]float32, 0, len(sentences))

	for _, b := range batches(len(sentences), e.batchSize) {
		contents := make([]*genai.Content, 0, b[1]-b[0])
		for _, s := range sentences[b[0]:b[1]] {
			contents = append(contents, genai.NewContentFromText(s, genai.RoleUser))
		}

		start := time.Now()
		resp, err := breaker.Call(e.breaker, func() (*genai.EmbedContentResponse, error) {
			return e.client.Models.EmbedContent(ctx, e.model, contents, nil)
		})
		metrics.ObserveCall("embedding", start)
		if err != nil {
			return nil, fmt.Errorf("Gemini embeddings API error: %w", err)
		}

		if len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("Gemini returned %d embeddings for %d sentences", len(resp.Embeddings), len(contents))
		}
		for _, emb := range resp.Embeddings {
			out = append(out, emb.Values)
		}
	}

	return out, nil
}

// Name returns the backend name
func (e *GeminiEmbedder) Name() string { return "gemini:" + e.model }
