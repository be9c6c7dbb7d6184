// Package embedding provides sentence-embedding backends used to compare
// gold sentences with their machine translations.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned when a remote backend has no credentials
var ErrNoAPIKey = errors.New("embedding API key not found")

// Embedder turns sentences into vectors; vector i belongs to sentence i
type Embedder interface {
	Embed(ctx context.Context, sentences []string) ([][]float32, error)
	Name() string
}

// Config selects and configures an embedding backend
type Config struct {
	Backend   string // "openai" or "gemini"
	Model     string
	APIKey    string
	BaseURL   string // OpenAI-compatible endpoint override
	BatchSize int
}

// DefaultConfig returns the OpenAI small embedding model
func DefaultConfig() *Config {
	return &Config{
		Backend:   "openai",
		Model:     "text-embedding-3-small",
		BatchSize: 256,
	}
}

// New creates the embedder named by config.Backend
func New(ctx context.Context, config *Config) (Embedder, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Backend {
	case "openai", "":
		return NewOpenAIEmbedder(config)
	case "gemini":
		return NewGeminiEmbedder(ctx, config)
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s", config.Backend)
	}
}

// batches splits n items into [start, end) ranges of at most size items
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
