package smatch

import (
	"math"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/xamr/internal/amr"
)

const (
	boyWantsToGo  = "(a / want-01 :ARG0 (b / boy) :ARG1 (c / go-01 :ARG0 b))"
	boyWantsBall  = "(a / want-01 :ARG0 (b / boy) :ARG1 (c / football))"
	renamedGoal   = "(x / want-01\n  :ARG1 (z / go-01 :ARG0 y)\n  :ARG0 (y / boy))"
	twoDogsGold   = "(a / and :op1 (b / dog) :op2 (c / dog :mod (d / big)))"
	twoDogsSwitch = "(x / and :op1 (y / dog :mod (z / big)) :op2 (w / dog))"
	repeatedEdge  = "(a / want-01 :ARG0 (b / boy) :ARG0 b)"
	restatedEdge  = "(a / want-01 :ARG0 (b / boy :ARG0-of a))"
	boyWanted     = "(x / want-01 :ARG0 (y / boy))"
	repeatedConst = "(a / cat :polarity - :polarity -)"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreGraphs(t *testing.T) {
	tests := []struct {
		name      string
		gold      amr.Graph
		pred      amr.Graph
		matched   int
		test      int
		goldN     int
		precision float64
		recall    float64
	}{
		{"identical", boyWantsToGo, boyWantsToGo, 7, 7, 7, 1, 1},
		{"renamed variables", boyWantsToGo, renamedGoal, 7, 7, 7, 1, 1},
		{"partial", boyWantsToGo, boyWantsBall, 5, 6, 7, 5.0 / 6.0, 5.0 / 7.0},
		{"ambiguous concepts", twoDogsGold, twoDogsSwitch, 7, 8, 8, 7.0 / 8.0, 7.0 / 8.0},
		{"placeholder", amr.Placeholder, amr.Placeholder, 4, 4, 4, 1, 1},
		{"repeated edge", repeatedEdge, repeatedEdge, 4, 4, 4, 1, 1},
		{"edge restated by inverse role", restatedEdge, restatedEdge, 4, 4, 4, 1, 1},
		{"repeated edge against plain graph", boyWanted, repeatedEdge, 4, 4, 4, 1, 1},
		{"inverse restatement against plain graph", restatedEdge, boyWanted, 4, 4, 4, 1, 1},
		{"repeated constant", repeatedConst, repeatedConst, 3, 3, 3, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreGraphs([]amr.Graph{tt.gold}, []amr.Graph{tt.pred}, DefaultOptions())

			if res.Matched != tt.matched || res.TestTriples != tt.test || res.GoldTriples != tt.goldN {
				t.Errorf("Got matched=%d test=%d gold=%d, want %d/%d/%d",
					res.Matched, res.TestTriples, res.GoldTriples, tt.matched, tt.test, tt.goldN)
			}
			if !almostEqual(res.Precision, tt.precision) || !almostEqual(res.Recall, tt.recall) {
				t.Errorf("Got P=%f R=%f, want P=%f R=%f", res.Precision, res.Recall, tt.precision, tt.recall)
			}
			wantF1 := 2 * tt.precision * tt.recall / (tt.precision + tt.recall)
			if !almostEqual(res.F1, wantF1) {
				t.Errorf("Got F1=%f, want %f", res.F1, wantF1)
			}
			if res.Errors != 0 {
				t.Errorf("Expected no errors, got %d", res.Errors)
			}
		})
	}
}

func TestScoreGraphs_BoundedByTripleCounts(t *testing.T) {
	graphs := []amr.Graph{
		boyWantsToGo, boyWantsBall, renamedGoal, twoDogsGold, twoDogsSwitch,
		repeatedEdge, restatedEdge, boyWanted, repeatedConst, amr.Placeholder,
	}

	for _, gold := range graphs {
		for _, pred := range graphs {
			res := ScoreGraphs([]amr.Graph{gold}, []amr.Graph{pred}, DefaultOptions())
			if res.Matched > res.TestTriples || res.Matched > res.GoldTriples {
				t.Errorf("%q vs %q: matched %d exceeds test %d or gold %d",
					pred, gold, res.Matched, res.TestTriples, res.GoldTriples)
			}
			if res.Precision > 1 || res.Recall > 1 || res.F1 > 1 {
				t.Errorf("%q vs %q: score above 1: %s", pred, gold, res)
			}
		}
	}
}

func TestUnique(t *testing.T) {
	in := []amr.Triple{
		{Role: "arg0", Source: "a", Target: "b"},
		{Role: "arg1", Source: "a", Target: "c"},
		{Role: "arg0", Source: "a", Target: "b"},
	}
	got := unique(in)
	if len(got) != 2 || got[0].Role != "arg0" || got[1].Role != "arg1" {
		t.Errorf("unique() = %+v", got)
	}
}

func TestScoreGraphs_CorpusTotals(t *testing.T) {
	gold := []amr.Graph{boyWantsToGo, boyWantsToGo}
	pred := []amr.Graph{boyWantsToGo, boyWantsBall}

	res := ScoreGraphs(gold, pred, DefaultOptions())
	if res.Pairs != 2 {
		t.Errorf("Expected 2 pairs, got %d", res.Pairs)
	}
	// 7+5 matched of 7+6 predicted and 7+7 gold triples
	if !almostEqual(res.Precision, 12.0/13.0) || !almostEqual(res.Recall, 12.0/14.0) {
		t.Errorf("Unexpected corpus score %s", res)
	}
}

func TestScoreGraphs_UnreadableGraph(t *testing.T) {
	gold := []amr.Graph{boyWantsToGo, boyWantsToGo}
	pred := []amr.Graph{boyWantsToGo, "(broken"}

	res := ScoreGraphs(gold, pred, DefaultOptions())
	if res.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", res.Errors)
	}
	if res.Matched != 7 || res.TestTriples != 7 || res.GoldTriples != 14 {
		t.Errorf("Unexpected counts %+v", res)
	}
	if !almostEqual(res.F1, 2.0/3.0) {
		t.Errorf("Expected F1 2/3, got %f", res.F1)
	}
}

func TestScoreGraphs_CountMismatch(t *testing.T) {
	gold := []amr.Graph{boyWantsToGo, boyWantsBall}
	pred := []amr.Graph{boyWantsToGo}

	res := ScoreGraphs(gold, pred, DefaultOptions())
	if res.Pairs != 1 {
		t.Errorf("Expected pairing to stop at 1, got %d", res.Pairs)
	}
	if res.F1 != 1 {
		t.Errorf("Expected F1 1.0 on the common prefix, got %f", res.F1)
	}
}

func TestScoreGraphs_Empty(t *testing.T) {
	res := ScoreGraphs(nil, nil, DefaultOptions())
	if res.Precision != 0 || res.Recall != 0 || res.F1 != 0 {
		t.Errorf("Expected zero scores, got %s", res)
	}
}

func TestScoreGraphs_Deterministic(t *testing.T) {
	gold := []amr.Graph{twoDogsGold, boyWantsToGo}
	pred := []amr.Graph{twoDogsSwitch, boyWantsBall}
	opts := Options{Restarts: 10, Seed: 42}

	first := ScoreGraphs(gold, pred, opts)
	second := ScoreGraphs(gold, pred, opts)
	if first != second {
		t.Errorf("Same seed gave different results: %+v vs %+v", first, second)
	}
}

func TestScoreFiles(t *testing.T) {
	dir := t.TempDir()
	goldPath := filepath.Join(dir, "gold.txt")
	predPath := filepath.Join(dir, "pred.txt")

	graphs := []amr.Graph{
		"# ::snt The boy wants to go.\n" + boyWantsToGo,
		"",
		twoDogsGold,
	}
	if _, err := amr.WriteGraphs(goldPath, graphs); err != nil {
		t.Fatalf("WriteGraphs failed: %v", err)
	}
	if _, err := amr.WriteGraphs(predPath, graphs); err != nil {
		t.Fatalf("WriteGraphs failed: %v", err)
	}

	res, err := ScoreFiles(goldPath, predPath, DefaultOptions())
	if err != nil {
		t.Fatalf("ScoreFiles failed: %v", err)
	}
	if res.Pairs != 3 || res.F1 != 1 {
		t.Errorf("Expected a perfect score over 3 pairs, got %+v", res)
	}

	if _, err := ScoreFiles(filepath.Join(dir, "missing.txt"), predPath, DefaultOptions()); err == nil {
		t.Error("Expected error for missing gold file")
	}
}

func TestPoolScore(t *testing.T) {
	gold, _ := amr.Parse(boyWantsToGo)
	test, _ := amr.Parse(renamedGoal)
	p := newPool(flatten(test), flatten(gold))

	// test variables x, z, y against gold a, b, c
	if got := p.score([]int{0, 2, 1}); got != 7 {
		t.Errorf("Expected 7 for the correct mapping, got %d", got)
	}
	if got := p.score([]int{-1, -1, -1}); got != 0 {
		t.Errorf("Expected 0 for the empty mapping, got %d", got)
	}
	if got := p.local([]int{0, 2, 1}, 0, 1, 2); got != 7 {
		t.Errorf("local over all nodes should equal score, got %d", got)
	}
}
