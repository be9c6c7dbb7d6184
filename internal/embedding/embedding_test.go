package embedding

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
)

func TestBatches(t *testing.T) {
	tests := []struct {
		n, size int
		want    [][2]int
	}{
		{0, 10, nil},
		{3, 10, [][2]int{{0, 3}}},
		{5, 2, [][2]int{{0, 2}, {2, 4}, {4, 5}}},
		{4, 0, [][2]int{{0, 4}}},
	}

	for _, tt := range tests {
		if got := batches(tt.n, tt.size); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("batches(%d, %d) = %v, want %v", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestNew_NoAPIKey(t *testing.T) {
	for _, backend := range []string{"openai", "gemini"} {
		_, err := New(context.Background(), &Config{Backend: backend})
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("%s: expected ErrNoAPIKey, got %v", backend, err)
		}
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), &Config{Backend: "sbert", APIKey: "k"}); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestNewOpenAIEmbedder(t *testing.T) {
	e, err := NewOpenAIEmbedder(&Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	if e.Name() != "openai:text-embedding-3-small" {
		t.Errorf("Unexpected name %s", e.Name())
	}
	if e.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestOpenAIEmbedder_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	e, err := NewOpenAIEmbedder(&Config{APIKey: apiKey, BatchSize: 1})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}

	vecs, err := e.Embed(context.Background(), []string{"A cat sleeps.", "A dog runs."})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) == 0 {
		t.Errorf("Unexpected embeddings shape: %d", len(vecs))
	}
}
