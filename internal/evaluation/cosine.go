package evaluation

import (
	"context"
	"fmt"
	"math"
)

// Embedder turns sentences into fixed-length vectors, one per sentence
type Embedder interface {
	Embed(ctx context.Context, sentences []string) ([][]float32, error)
	Name() string
}

// Cosine returns the cosine similarity of a and b. Zero vectors have
// similarity 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CosineSimilarity embeds both lists and summarizes the pairwise cosine
// similarity of gold[i] and translated[i].
func CosineSimilarity(ctx context.Context, embedder Embedder, gold, translated []string) (Summary, error) {
	pairs := pairCount("cosine", gold, translated)
	if pairs == 0 {
		return Summarize(nil), nil
	}

	goldVecs, err := embedder.Embed(ctx, gold[:pairs])
	if err != nil {
		return Summary{}, fmt.Errorf("failed to embed gold sentences: %w", err)
	}
	transVecs, err := embedder.Embed(ctx, translated[:pairs])
	if err != nil {
		return Summary{}, fmt.Errorf("failed to embed translations: %w", err)
	}
	if len(goldVecs) != pairs || len(transVecs) != pairs {
		return Summary{}, fmt.Errorf("%s returned %d/%d embeddings for %d sentences",
			embedder.Name(), len(goldVecs), len(transVecs), pairs)
	}

	scores := make([]float64, pairs)
	for i := range scores {
		scores[i] = Cosine(goldVecs[i], transVecs[i])
	}
	return Summarize(scores), nil
}
