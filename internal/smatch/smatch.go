// Package smatch scores predicted AMR graphs against gold graphs by triple
// overlap under the best variable mapping, found by hill climbing.
package smatch

import (
	"fmt"
	"math/rand"
	"sort"

	"codeberg.org/snonux/xamr/internal/amr"
	"codeberg.org/snonux/xamr/internal/logger"
)

// Options tunes the mapping search
type Options struct {
	Restarts int   // random restarts after the concept-based start
	Seed     int64 // seeds the restarts so scores are reproducible
}

// DefaultOptions returns the settings used by the pipeline
func DefaultOptions() Options {
	return Options{Restarts: 4, Seed: 1}
}

// Result is a corpus-level smatch score
type Result struct {
	Precision float64
	Recall    float64
	F1        float64

	Matched     int // matched triples over all pairs
	TestTriples int
	GoldTriples int
	Pairs       int
	Errors      int // graphs that could not be read
}

func (r Result) String() string {
	return fmt.Sprintf("Precision: %.4f; Recall: %.4f; F-score: %.4f", r.Precision, r.Recall, r.F1)
}

func precision(truePositives, testPositives int) float64 {
	if testPositives == 0 {
		return 0
	}
	return float64(truePositives) / float64(testPositives)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2.0 * (precision * recall) / (precision + recall)
}

// ScoreFiles scores the graph file predPath against goldPath
func ScoreFiles(goldPath, predPath string, opts Options) (Result, error) {
	gold, err := amr.ReadGraphs(goldPath)
	if err != nil {
		return Result{}, fmt.Errorf("gold graphs: %w", err)
	}
	pred, err := amr.ReadGraphs(predPath)
	if err != nil {
		return Result{}, fmt.Errorf("predicted graphs: %w", err)
	}
	return ScoreGraphs(gold, pred, opts), nil
}

// ScoreGraphs pairs gold[i] with pred[i] and sums the triple counts of all
// pairs. Pairing stops at the shorter list. An unreadable graph contributes
// no triples.
func ScoreGraphs(gold, pred []amr.Graph, opts Options) Result {
	n := min(len(gold), len(pred))
	if len(gold) != len(pred) {
		logger.Log.Warn("graph counts differ, scoring common prefix", "gold", len(gold), "predicted", len(pred), "pairs", n)
	}
	if opts.Restarts < 0 {
		opts.Restarts = 0
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	var res Result

	for i := 0; i < n; i++ {
		goldTree := readTree(gold[i], i, "gold", &res)
		predTree := readTree(pred[i], i, "predicted", &res)

		matched, test, goldN := match(predTree, goldTree, opts.Restarts, rng)
		res.Matched += matched
		res.TestTriples += test
		res.GoldTriples += goldN
	}

	res.Pairs = n
	res.Precision = precision(res.Matched, res.TestTriples)
	res.Recall = precision(res.Matched, res.GoldTriples)
	res.F1 = f1(res.Precision, res.Recall)
	return res
}

func readTree(g amr.Graph, i int, side string, res *Result) *amr.Tree {
	tree, err := amr.Parse(string(g))
	if err != nil {
		res.Errors++
		logger.Log.Debug("unreadable graph", "side", side, "graph", i+1, "error", err)
		return nil
	}
	return tree
}

// graph is a tree flattened to indexed triples
type graph struct {
	vars       map[string]int
	instances  []amr.Triple
	attributes []amr.Triple
	relations  []amr.Triple
}

func flatten(t *amr.Tree) *graph {
	if t == nil {
		return &graph{}
	}
	g := &graph{
		vars:       make(map[string]int),
		instances:  unique(t.Instances()),
		attributes: unique(t.Attributes()),
		relations:  unique(t.Relations()),
	}
	for i, inst := range g.instances {
		g.vars[inst.Source] = i
	}
	return g
}

// unique drops repeated triples, keeping the first of each. A graph is a
// set of triples, so an edge given twice or restated through its inverse
// role counts once.
func unique(triples []amr.Triple) []amr.Triple {
	seen := make(map[amr.Triple]bool, len(triples))
	out := triples[:0]
	for _, t := range triples {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (g *graph) size() int {
	return len(g.instances) + len(g.attributes) + len(g.relations)
}

type pairKey struct{ i, j int }

// pool holds the candidate mappings and what each one is worth. single
// counts triples matched by one variable pair alone; pairs counts relation
// triples matched by two variable pairs together, stored in both directions.
type pool struct {
	candidates [][]int
	concepts   [][]int
	single     map[pairKey]int
	pairs      map[pairKey]map[pairKey]int
	n2         int
}

func newPool(test, gold *graph) *pool {
	p := &pool{
		single: make(map[pairKey]int),
		pairs:  make(map[pairKey]map[pairKey]int),
		n2:     len(gold.instances),
	}
	cands := make([]map[int]bool, len(test.instances))
	for i := range cands {
		cands[i] = make(map[int]bool)
	}
	p.concepts = make([][]int, len(test.instances))

	for i, t := range test.instances {
		for j, g := range gold.instances {
			if t.Target == g.Target {
				cands[i][j] = true
				p.concepts[i] = append(p.concepts[i], j)
				p.single[pairKey{i, j}]++
			}
		}
	}

	for _, t := range test.attributes {
		for _, g := range gold.attributes {
			if t.Role == g.Role && t.Target == g.Target {
				i, j := test.vars[t.Source], gold.vars[g.Source]
				cands[i][j] = true
				p.single[pairKey{i, j}]++
			}
		}
	}

	for _, t := range test.relations {
		for _, g := range gold.relations {
			if t.Role != g.Role {
				continue
			}
			a := pairKey{test.vars[t.Source], gold.vars[g.Source]}
			b := pairKey{test.vars[t.Target], gold.vars[g.Target]}
			cands[a.i][a.j] = true
			cands[b.i][b.j] = true
			if a == b {
				p.single[a]++
				continue
			}
			p.addPair(a, b)
			p.addPair(b, a)
		}
	}

	p.candidates = make([][]int, len(cands))
	for i, set := range cands {
		for j := range set {
			p.candidates[i] = append(p.candidates[i], j)
		}
		sort.Ints(p.candidates[i])
	}
	return p
}

func (p *pool) addPair(a, b pairKey) {
	if p.pairs[a] == nil {
		p.pairs[a] = make(map[pairKey]int)
	}
	p.pairs[a][b]++
}

// score counts the triples matched under mapping m
func (p *pool) score(m []int) int {
	single, double := 0, 0
	for i, j := range m {
		if j < 0 {
			continue
		}
		key := pairKey{i, j}
		single += p.single[key]
		for other, w := range p.pairs[key] {
			if other.i != i && m[other.i] == other.j {
				double += w
			}
		}
	}
	return single + double/2
}

// local is the part of score that depends on the mappings of nodes
func (p *pool) local(m []int, nodes ...int) int {
	score := 0
	for a, x := range nodes {
		if m[x] < 0 {
			continue
		}
		key := pairKey{x, m[x]}
		score += p.single[key]

		for other, w := range p.pairs[key] {
			if other.i == x || m[other.i] != other.j {
				continue
			}
			inner, earlier := false, false
			for b, y := range nodes {
				if y == other.i {
					inner, earlier = true, b < a
				}
			}
			if !inner || earlier {
				score += w
			}
		}
	}
	return score
}

// climb improves m in place by single moves and swaps until no step helps
func (p *pool) climb(m []int) int {
	used := make([]bool, p.n2)
	for _, j := range m {
		if j >= 0 {
			used[j] = true
		}
	}
	current := p.score(m)

	for {
		bestGain := 0
		bestI, bestK, bestJ := -1, -1, -1

		for i := range m {
			for _, j := range p.candidates[i] {
				if j == m[i] || used[j] {
					continue
				}
				prev := m[i]
				before := p.local(m, i)
				m[i] = j
				gain := p.local(m, i) - before
				m[i] = prev
				if gain > bestGain {
					bestGain, bestI, bestK, bestJ = gain, i, -1, j
				}
			}
		}

		for i := range m {
			for k := i + 1; k < len(m); k++ {
				if m[i] == m[k] {
					continue
				}
				before := p.local(m, i, k)
				m[i], m[k] = m[k], m[i]
				gain := p.local(m, i, k) - before
				m[i], m[k] = m[k], m[i]
				if gain > bestGain {
					bestGain, bestI, bestK, bestJ = gain, i, k, -1
				}
			}
		}

		if bestGain <= 0 {
			return current
		}

		if bestK < 0 {
			if m[bestI] >= 0 {
				used[m[bestI]] = false
			}
			m[bestI] = bestJ
			used[bestJ] = true
		} else {
			m[bestI], m[bestK] = m[bestK], m[bestI]
		}
		current += bestGain
	}
}

// smartStart maps variables with the same concept first, then fills the
// rest with random free candidates
func (p *pool) smartStart(rng *rand.Rand) []int {
	m, used := p.empty()
	for i, js := range p.concepts {
		for _, j := range js {
			if !used[j] {
				m[i] = j
				used[j] = true
				break
			}
		}
	}
	p.fillRandom(m, used, rng)
	return m
}

func (p *pool) randomStart(rng *rand.Rand) []int {
	m, used := p.empty()
	p.fillRandom(m, used, rng)
	return m
}

func (p *pool) empty() ([]int, []bool) {
	m := make([]int, len(p.candidates))
	for i := range m {
		m[i] = -1
	}
	return m, make([]bool, p.n2)
}

func (p *pool) fillRandom(m []int, used []bool, rng *rand.Rand) {
	for i := range m {
		if m[i] >= 0 {
			continue
		}
		var free []int
		for _, j := range p.candidates[i] {
			if !used[j] {
				free = append(free, j)
			}
		}
		if len(free) > 0 {
			j := free[rng.Intn(len(free))]
			m[i] = j
			used[j] = true
		}
	}
}

// match returns the best number of matched triples and both triple counts
func match(test, gold *amr.Tree, restarts int, rng *rand.Rand) (int, int, int) {
	tg, gg := flatten(test), flatten(gold)
	nTest, nGold := tg.size(), gg.size()
	if nTest == 0 || nGold == 0 {
		return 0, nTest, nGold
	}

	p := newPool(tg, gg)
	upper := min(nTest, nGold)

	best := p.climb(p.smartStart(rng))
	for r := 0; r < restarts && best < upper; r++ {
		best = max(best, p.climb(p.randomStart(rng)))
	}
	return best, nTest, nGold
}
