package evaluation

import (
	"math"
	"strings"
)

// DefaultWeights weight unigram and bigram precision equally
var DefaultWeights = []float64{0.5, 0.5}

// SentenceBLEU scores a tokenized hypothesis against tokenized references.
// Modified n-gram precisions are clipped by the maximum reference count and
// combined as a weighted geometric mean times the brevity penalty of the
// closest reference length. No smoothing is applied: a hypothesis without
// unigram matches, or with any zero-precision order, scores 0.
func SentenceBLEU(references [][]string, hypothesis []string, weights []float64) float64 {
	if len(weights) == 0 {
		weights = DefaultWeights
	}

	var logSum float64
	for i, w := range weights {
		num, den := modifiedPrecision(references, hypothesis, i+1)
		if num == 0 {
			return 0
		}
		logSum += w * math.Log(float64(num)/float64(den))
	}

	return brevityPenalty(references, len(hypothesis)) * math.Exp(logSum)
}

// modifiedPrecision returns the clipped match count and the hypothesis n-gram
// count (at least 1) for order n.
func modifiedPrecision(references [][]string, hypothesis []string, n int) (int, int) {
	counts := ngramCounts(hypothesis, n)

	maxRef := make(map[string]int)
	for _, ref := range references {
		for gram, c := range ngramCounts(ref, n) {
			if c > maxRef[gram] {
				maxRef[gram] = c
			}
		}
	}

	num, den := 0, 0
	for gram, c := range counts {
		den += c
		if m := maxRef[gram]; m < c {
			num += m
		} else {
			num += c
		}
	}
	if den < 1 {
		den = 1
	}
	return num, den
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

// brevityPenalty uses the reference length closest to hypLen, preferring
// the shorter one on ties.
func brevityPenalty(references [][]string, hypLen int) float64 {
	if hypLen == 0 {
		return 0
	}

	closest := -1
	for _, ref := range references {
		r := len(ref)
		if closest < 0 {
			closest = r
			continue
		}
		d, best := abs(r-hypLen), abs(closest-hypLen)
		if d < best || (d == best && r < closest) {
			closest = r
		}
	}

	if hypLen > closest {
		return 1
	}
	return math.Exp(1 - float64(closest)/float64(hypLen))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// BLEU pairs gold[i] with translated[i] for every i below the shorter
// length, tokenizes on whitespace and summarizes the sentence scores.
func BLEU(gold, translated []string) Summary {
	pairs := pairCount("bleu", gold, translated)

	scores := make([]float64, pairs)
	for i := 0; i < pairs; i++ {
		ref := strings.Fields(gold[i])
		hyp := strings.Fields(translated[i])
		scores[i] = SentenceBLEU([][]string{ref}, hyp, DefaultWeights)
	}
	return Summarize(scores)
}
