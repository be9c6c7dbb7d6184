package evaluation

import (
	"context"
	"errors"
	"math"
	"testing"

	"codeberg.org/snonux/xamr/internal/testutil"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_IdenticalSentences(t *testing.T) {
	embedder := &testutil.MockEmbedder{}
	gold := []string{"A cat sleeps.", "A dog runs."}

	s, err := CosineSimilarity(context.Background(), embedder, gold, gold)
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(s.Mean-1.0) > 1e-6 {
		t.Errorf("Expected mean ≈ 1.0, got %v", s.Mean)
	}
	if s.Pairs != 2 {
		t.Errorf("Expected 2 pairs, got %d", s.Pairs)
	}
	if embedder.Calls != 2 {
		t.Errorf("Expected 2 embedding calls, got %d", embedder.Calls)
	}
}

func TestCosineSimilarity_TruncatesToShorterList(t *testing.T) {
	gold := []string{"a b", "c d", "e f"}
	translated := []string{"a b"}

	s, err := CosineSimilarity(context.Background(), &testutil.MockEmbedder{}, gold, translated)
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if s.Pairs != 1 {
		t.Errorf("Expected 1 pair, got %d", s.Pairs)
	}
}

func TestCosineSimilarity_EmbedError(t *testing.T) {
	embedder := &testutil.MockEmbedder{Err: errors.New("model unavailable")}

	_, err := CosineSimilarity(context.Background(), embedder, []string{"a"}, []string{"a"})
	if err == nil {
		t.Error("Expected error when embedding fails")
	}
}

func TestCosineSimilarity_Empty(t *testing.T) {
	embedder := &testutil.MockEmbedder{}
	s, err := CosineSimilarity(context.Background(), embedder, nil, []string{"a"})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if s.Pairs != 0 || embedder.Calls != 0 {
		t.Errorf("Expected no pairs and no embedding calls, got %d pairs, %d calls", s.Pairs, embedder.Calls)
	}
}
