package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/xamr/internal/amr"
	"codeberg.org/snonux/xamr/internal/layout"
	"codeberg.org/snonux/xamr/internal/store"
	"codeberg.org/snonux/xamr/internal/testutil"
)

const (
	catGraph = "# ::snt A cat sleeps.\n(s / sleep-01\n    :ARG0 (c / cat))"
	dogGraph = "# ::snt A dog runs.\n(r / run-02\n    :ARG0 (d / dog))"
)

type mockParser struct {
	graphs map[string]amr.Graph
	calls  int
}

func (m *mockParser) Parse(ctx context.Context, sentences []string) ([]amr.Graph, error) {
	m.calls++
	out := make([]amr.Graph, len(sentences))
	for i, s := range sentences {
		out[i] = m.graphs[s]
	}
	return out, nil
}

func (m *mockParser) Name() string { return "mock" }

type fixture struct {
	root   string
	config Config
	deps   Deps
	mock   *testutil.MockTranslator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := testutil.CreateTestDataset(t)

	paths := layout.DefaultPaths()
	paths.DataDir = filepath.Join(root, paths.DataDir)
	paths.GoldSentenceDir = filepath.Join(root, paths.GoldSentenceDir)
	paths.GoldAMRDir = filepath.Join(root, paths.GoldAMRDir)
	paths.TranslationDir = filepath.Join(root, paths.TranslationDir)
	paths.BacktransDir = filepath.Join(root, paths.BacktransDir)
	paths.GraphDir = filepath.Join(root, paths.GraphDir)
	paths.Report = filepath.Join(root, paths.Report)
	paths.GoldUnified = filepath.Join(root, paths.GoldUnified)

	config := DefaultConfig()
	config.Paths = paths
	config.RunID = "test-run"

	mock := &testutil.MockTranslator{Translations: map[string]string{
		"Eine Katze schläft.": "A cat sleeps.",
		"Ein Hund rennt.":     "A dog runs.",
		"A cat sleeps.":       "Eine Katze schläft.",
		"A dog runs.":         "Ein Hund rennt.",
	}}

	return &fixture{
		root:   root,
		config: config,
		mock:   mock,
		deps: Deps{
			Backend:  mock,
			Embedder: &testutil.MockEmbedder{},
			Parser: &mockParser{graphs: map[string]amr.Graph{
				"A cat sleeps.": catGraph,
				"A dog runs.":   dogGraph,
			}},
		},
	}
}

func (f *fixture) writeSource(t *testing.T, category, lang, content string) string {
	t.Helper()
	path := filepath.Join(f.config.Paths.DataDir, layout.ForCategory(category, lang).Source())
	testutil.CreateTestFile(t, path, []byte(content))
	return path
}

func (f *fixture) writeGold(t *testing.T, category string) {
	t.Helper()
	name := layout.ForCategory(category, "DE")
	testutil.CreateTestFile(t, filepath.Join(f.config.Paths.GoldSentenceDir, name.GoldSentences()),
		[]byte("A cat sleeps.\nA dog runs.\n"))
	testutil.CreateTestFile(t, filepath.Join(f.config.Paths.GoldAMRDir, name.GoldAMR()),
		[]byte(catGraph+"\n\n"+dogGraph+"\n\n"))
}

func (f *fixture) openLedger(t *testing.T) *store.Store {
	t.Helper()
	ledger, err := store.Open(filepath.Join(f.root, "xamr.db"))
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	f.deps.Ledger = ledger
	return ledger
}

func TestNewProcessor(t *testing.T) {
	p := NewProcessor(Config{}, Deps{})

	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
	if len(p.config.Languages) != 4 {
		t.Errorf("Expected default languages, got %v", p.config.Languages)
	}
	if len(p.config.Categories) != 5 {
		t.Errorf("Expected default categories, got %v", p.config.Categories)
	}
	if p.report == nil {
		t.Error("Report not initialized")
	}
}

func TestProcessFile(t *testing.T) {
	f := newFixture(t)
	ledger := f.openLedger(t)
	src := f.writeSource(t, "bolt", "DE", "Eine Katze schläft.\nEin Hund rennt.\n")
	f.writeGold(t, "bolt")

	p := NewProcessor(f.config, f.deps)
	if err := p.ProcessFile(context.Background(), "de", src); err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	name := layout.ForCategory("bolt", "DE")
	testutil.AssertFileContent(t, filepath.Join(f.config.Paths.TranslationDir, name.Translation()),
		[]byte("A cat sleeps.\nA dog runs.\n"))
	testutil.AssertFileContent(t, filepath.Join(f.config.Paths.GraphDir, name.Graphs()),
		[]byte(catGraph+"\n\n"+dogGraph+"\n\n"))

	report := f.config.Paths.Report
	testutil.AssertFileContains(t, report, "\n\n## "+src+"\nBleu Score (mean of all sentences): 1.0000; σ = 0.0000\n")
	testutil.AssertFileContains(t, report, "Cosine similarity gold––translation (mean of all sentences): 1.0000; σ = 0.0000\n---")
	testutil.AssertFileContains(t, report, "Precision: 1.0000; Recall: 1.0000; F-score: 1.0000")

	rows, err := ledger.List(context.Background(), store.Filter{RunID: "test-run"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	kinds := make([]string, len(rows))
	for i, r := range rows {
		kinds[i] = r.Kind
	}
	if strings.Join(kinds, ",") != "bleu,cosine,smatch" {
		t.Errorf("Unexpected ledger rows %v", kinds)
	}
	if rows[0].Language != "DE" || rows[0].Pairs != 2 {
		t.Errorf("Unexpected BLEU row %+v", rows[0])
	}
}

func TestProcessFile_WithoutGold(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "dfa", "DE", "Eine Katze schläft.\n")

	p := NewProcessor(f.config, f.deps)
	if err := p.ProcessFile(context.Background(), "DE", src); err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	name := layout.ForCategory("dfa", "DE")
	testutil.AssertFileExists(t, filepath.Join(f.config.Paths.GraphDir, name.Graphs()))
	testutil.AssertFileNotExists(t, f.config.Paths.Report)
}

func TestProcessFile_Errors(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "bolt", "DE", "Eine Katze schläft.\n")

	p := NewProcessor(f.config, f.deps)
	if err := p.ProcessFile(context.Background(), "DE", filepath.Join(f.root, "notes.md")); !errors.Is(err, layout.ErrUnexpectedName) {
		t.Errorf("Expected ErrUnexpectedName, got %v", err)
	}

	noParser := f.deps
	noParser.Parser = nil
	if err := NewProcessor(f.config, noParser).ProcessFile(context.Background(), "DE", src); err == nil {
		t.Error("Expected error without a parser")
	}

	noBackend := f.deps
	noBackend.Backend = nil
	if err := NewProcessor(f.config, noBackend).ProcessFile(context.Background(), "DE", src); err == nil {
		t.Error("Expected error without a translation backend")
	}
}

func TestTranslateLanguage(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "bolt", "DE", "Eine Katze schläft.\nEin Hund rennt.\n")
	f.writeSource(t, "consensus", "DE", "Ein Hund rennt.\n")
	f.writeSource(t, "proxy", "DE", "kaputt\n")
	f.writeSource(t, "bolt", "IT", "Un gatto dorme.\n")
	f.writeGold(t, "bolt")
	f.mock.Errors = map[string]error{"kaputt": errors.New("backend down")}

	p := NewProcessor(f.config, f.deps)
	if err := p.TranslateLanguage(context.Background(), "DE"); err != nil {
		t.Fatalf("TranslateLanguage failed: %v", err)
	}

	stats := p.Stats()
	if stats.Processed != 2 || stats.Errors != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	dir := f.config.Paths.TranslationDir
	testutil.AssertFileExists(t, filepath.Join(dir, layout.ForCategory("bolt", "DE").Translation()))
	testutil.AssertFileContent(t, filepath.Join(dir, layout.ForCategory("consensus", "DE").Translation()), []byte("A dog runs.\n"))
	testutil.AssertFileNotExists(t, filepath.Join(dir, layout.ForCategory("proxy", "DE").Translation()))
	testutil.AssertFileNotExists(t, filepath.Join(dir, layout.ForCategory("bolt", "IT").Translation()))

	// only bolt has gold sentences
	content, err := os.ReadFile(f.config.Paths.Report)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if n := strings.Count(string(content), "Bleu Score"); n != 1 {
		t.Errorf("Expected 1 BLEU entry, got %d", n)
	}
}

func TestBacktranslate(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "bolt", "DE", "Eine Katze schläft.\nEin Hund rennt.\n")
	f.writeSource(t, "dfa", "DE", "Ein Hund rennt.\n")
	name := layout.ForCategory("bolt", "DE")
	testutil.CreateTestFile(t, filepath.Join(f.config.Paths.TranslationDir, name.Translation()),
		[]byte("A cat sleeps.\nA dog runs.\n"))

	p := NewProcessor(f.config, f.deps)
	if err := p.Backtranslate(context.Background(), "DE"); err != nil {
		t.Fatalf("Backtranslate failed: %v", err)
	}

	if stats := p.Stats(); stats.Processed != 1 || stats.Skipped != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	testutil.AssertFileContent(t, filepath.Join(f.config.Paths.BacktransDir, name.Backtranslation()),
		[]byte("Eine Katze schläft.\nEin Hund rennt.\n"))
	testutil.AssertFileContains(t, f.config.Paths.Report, "Bleu Score (mean of all sentences): 1.0000")

	if f.mock.Calls[0] != "Translate: A cat sleeps. (en->DE)" {
		t.Errorf("Unexpected translation direction %q", f.mock.Calls[0])
	}
}

func TestParseTranslations(t *testing.T) {
	f := newFixture(t)
	dir := f.config.Paths.TranslationDir
	testutil.CreateTestFile(t, filepath.Join(dir, layout.ForCategory("bolt", "DE").Translation()), []byte("A cat sleeps.\nGibberish.\n"))
	testutil.CreateTestFile(t, filepath.Join(dir, layout.ForCategory("bolt", "ES").Translation()), []byte("A dog runs.\n"))
	testutil.CreateTestFile(t, filepath.Join(dir, "notes.txt"), []byte("not a translation\n"))

	p := NewProcessor(f.config, f.deps)
	if err := p.ParseTranslations(context.Background()); err != nil {
		t.Fatalf("ParseTranslations failed: %v", err)
	}
	if stats := p.Stats(); stats.Processed != 2 || stats.Errors != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	graphs, err := amr.ReadGraphs(filepath.Join(f.config.Paths.GraphDir, layout.ForCategory("bolt", "DE").Graphs()))
	if err != nil {
		t.Fatalf("ReadGraphs failed: %v", err)
	}
	if len(graphs) != 2 {
		t.Fatalf("Expected 2 graphs, got %d", len(graphs))
	}
	if !strings.Contains(string(graphs[1]), "resemble-01") {
		t.Errorf("Expected placeholder for unparsed sentence, got %q", graphs[1])
	}
}

func TestUnify(t *testing.T) {
	f := newFixture(t)
	f.config.Languages = []string{"DE", "ES"}
	f.config.TrailingLines = 1

	var want strings.Builder
	for _, cat := range layout.Categories {
		content := "(x / " + cat + ")\n\n(o / obsolete)\n"
		testutil.CreateTestFile(t, filepath.Join(f.config.Paths.GraphDir, layout.ForCategory(cat, "DE").Graphs()), []byte(content))
		want.WriteString("(x / " + cat + ")\n\n")
	}
	f.writeGold(t, "bolt")
	f.writeGold(t, "consensus")

	p := NewProcessor(f.config, f.deps)
	if err := p.Unify(true); err != nil {
		t.Fatalf("Unify failed: %v", err)
	}

	if stats := p.Stats(); stats.Processed != 1 || stats.Errors != 1 {
		t.Errorf("Expected DE unified and ES failed, got %+v", stats)
	}
	testutil.AssertFileContent(t, filepath.Join(f.config.Paths.GraphDir, layout.Unified("DE")), []byte(want.String()))

	gold, err := amr.ReadGraphs(f.config.Paths.GoldUnified)
	if err != nil {
		t.Fatalf("ReadGraphs failed: %v", err)
	}
	if len(gold) != 4 {
		t.Errorf("Expected 4 unified gold graphs, got %d", len(gold))
	}

	// unifying again recreates rather than appends
	if err := p.Unify(false); err != nil {
		t.Fatalf("Unify failed: %v", err)
	}
	testutil.AssertFileContent(t, filepath.Join(f.config.Paths.GraphDir, layout.Unified("DE")), []byte(want.String()))
}

func TestEvaluateSmatch(t *testing.T) {
	f := newFixture(t)
	f.config.Languages = []string{"DE", "ES"}
	ledger := f.openLedger(t)

	p := NewProcessor(f.config, f.deps)
	if err := p.EvaluateSmatch(context.Background()); err == nil {
		t.Error("Expected error without unified gold graphs")
	}

	testutil.CreateTestFile(t, f.config.Paths.GoldUnified, []byte(catGraph+"\n\n"+dogGraph+"\n\n"))
	testutil.CreateTestFile(t, filepath.Join(f.config.Paths.GraphDir, layout.Unified("DE")),
		[]byte(catGraph+"\n\n"+amr.Placeholder+"\n\n"))

	if err := p.EvaluateSmatch(context.Background()); err != nil {
		t.Fatalf("EvaluateSmatch failed: %v", err)
	}
	if stats := p.Stats(); stats.Processed != 1 || stats.Skipped != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	testutil.AssertFileContains(t, f.config.Paths.Report, "## Smatch "+filepath.Join(f.config.Paths.GraphDir, layout.Unified("DE")))

	rows, err := ledger.List(context.Background(), store.Filter{Kind: store.KindSmatch})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Pairs != 2 {
		t.Fatalf("Unexpected smatch rows %+v", rows)
	}
	if rows[0].F1 <= 0 || rows[0].F1 >= 1 {
		t.Errorf("Expected partial F1, got %f", rows[0].F1)
	}
}

func TestEvaluateTranslation(t *testing.T) {
	f := newFixture(t)
	gold := filepath.Join(f.root, "gold.txt")
	translated := filepath.Join(f.root, "x.sentences.ES_nmt.txt")
	testutil.CreateTestFile(t, gold, []byte("the cat sat on the mat\n"))
	testutil.CreateTestFile(t, translated, []byte("the cat sat on a mat\n"))

	p := NewProcessor(f.config, f.deps)
	if err := p.EvaluateTranslation(context.Background(), gold, translated); err != nil {
		t.Fatalf("EvaluateTranslation failed: %v", err)
	}
	testutil.AssertFileContains(t, f.config.Paths.Report, "\n\n## "+translated+"\nBleu Score")

	if err := p.EvaluateTranslation(context.Background(), filepath.Join(f.root, "missing.txt"), translated); err == nil {
		t.Error("Expected error for missing gold file")
	}
}

func TestExtractSources(t *testing.T) {
	f := newFixture(t)
	f.writeGold(t, "xinhua")

	p := NewProcessor(f.config, f.deps)
	written, err := p.ExtractSources()
	if err != nil {
		t.Fatalf("ExtractSources failed: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("Expected 1 file, got %v", written)
	}
	testutil.AssertFileContent(t, written[0], []byte("A cat sleeps.\nA dog runs.\n"))
}

func TestExtractSources_SkipsUnifiedGold(t *testing.T) {
	f := newFixture(t)
	f.writeGold(t, "xinhua")
	testutil.CreateTestFile(t, f.config.Paths.GoldUnified, []byte("# ::snt A cat sleeps.\n(c / cat)\n\n"))

	p := NewProcessor(f.config, f.deps)
	written, err := p.ExtractSources()
	if err != nil {
		t.Fatalf("ExtractSources failed: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("Expected 1 file, got %v", written)
	}
	testutil.AssertFileNotExists(t, filepath.Join(f.config.Paths.GoldSentenceDir, "GOLD_AMR_unified_source.txt"))
}
