package evaluation

import (
	"math"

	"codeberg.org/snonux/xamr/internal/logger"
)

// Summary aggregates per-sentence scores
type Summary struct {
	Mean   float64
	StdDev float64 // population standard deviation
	Pairs  int
	Scores []float64
}

// Summarize computes mean and population standard deviation. An empty input
// yields NaN for both.
func Summarize(scores []float64) Summary {
	s := Summary{Pairs: len(scores), Scores: scores}
	if len(scores) == 0 {
		s.Mean, s.StdDev = math.NaN(), math.NaN()
		return s
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	s.Mean = sum / float64(len(scores))

	var sq float64
	for _, v := range scores {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(scores)))
	return s
}

// pairCount returns min(len(gold), len(translated)) and warns when the
// lengths differ.
func pairCount(metric string, gold, translated []string) int {
	n := len(gold)
	if len(translated) != n {
		logger.Log.Warn("gold and translated lengths differ, pairing stops at the shorter list",
			"metric", metric, "gold", len(gold), "translated", len(translated))
		if len(translated) < n {
			n = len(translated)
		}
	}
	return n
}
