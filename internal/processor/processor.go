package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/xamr/internal/amr"
	"codeberg.org/snonux/xamr/internal/evaluation"
	"codeberg.org/snonux/xamr/internal/layout"
	"codeberg.org/snonux/xamr/internal/logger"
	"codeberg.org/snonux/xamr/internal/metrics"
	"codeberg.org/snonux/xamr/internal/sentences"
	"codeberg.org/snonux/xamr/internal/smatch"
	"codeberg.org/snonux/xamr/internal/store"
	"codeberg.org/snonux/xamr/internal/translation"
	"codeberg.org/snonux/xamr/internal/unify"
)

// Config controls where the pipeline reads and writes and what it covers
type Config struct {
	Paths      layout.Paths
	Languages  []string
	Categories []string

	// TrailingLines is dropped from every graph file before unification
	// when Unify is asked to truncate.
	TrailingLines int

	Smatch smatch.Options
	RunID  string
}

// DefaultConfig returns the dataset defaults
func DefaultConfig() Config {
	return Config{
		Paths:         layout.DefaultPaths(),
		Languages:     layout.Languages,
		Categories:    layout.Categories,
		TrailingLines: unify.DefaultTrailingLines,
		Smatch:        smatch.DefaultOptions(),
	}
}

// Deps are the model-backed components. Only the ones a stage needs must be
// set: translation stages need Backend, parsing needs Parser. Without an
// Embedder cosine similarity is skipped; without a Ledger nothing is
// recorded in the database.
type Deps struct {
	Backend  translation.Backend
	Embedder evaluation.Embedder
	Parser   amr.Parser
	Ledger   *store.Store
}

// Stats counts the outcome of one stage
type Stats struct {
	Processed int
	Skipped   int
	Errors    int
}

// Processor runs the pipeline stages
type Processor struct {
	config Config
	deps   Deps
	report *evaluation.Report
	stats  Stats
}

// NewProcessor creates a new pipeline processor
func NewProcessor(config Config, deps Deps) *Processor {
	if len(config.Languages) == 0 {
		config.Languages = layout.Languages
	}
	if len(config.Categories) == 0 {
		config.Categories = layout.Categories
	}

	return &Processor{
		config: config,
		deps:   deps,
		report: evaluation.NewReport(config.Paths.Report),
	}
}

// Stats returns the counts of the last stage
func (p *Processor) Stats() Stats { return p.stats }

// Languages returns the languages the processor covers
func (p *Processor) Languages() []string { return p.config.Languages }

// ProcessFile runs the whole pipeline for one source file: translate, save,
// score the translation if gold sentences exist, parse, write the graphs and
// score them if a gold graph file exists.
func (p *Processor) ProcessFile(ctx context.Context, lang, path string) error {
	name, err := layout.Parse(path)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = name.Lang
	}
	if p.deps.Parser == nil {
		return fmt.Errorf("no AMR parser configured")
	}
	if err := p.config.Paths.EnsureOutputDirs(); err != nil {
		return err
	}

	fmt.Printf("\nParsing file %s from %s.\n\n", path, lang)

	translated, err := p.translateFile(ctx, name, path, lang)
	if err != nil {
		return err
	}

	graphsPath, err := p.parseFile(ctx, translated)
	if err != nil {
		return err
	}

	goldAMR := filepath.Join(p.config.Paths.GoldAMRDir, name.GoldAMR())
	if !exists(goldAMR) {
		fmt.Printf("  No gold graphs at %s, skipping smatch\n", goldAMR)
		return nil
	}
	return p.scoreGraphs(ctx, goldAMR, graphsPath, name.Lang)
}

// TranslateLanguage translates every category file of lang and scores each
// translation against its English gold sentences
func (p *Processor) TranslateLanguage(ctx context.Context, lang string) error {
	names, err := layout.SourceFiles(p.config.Paths.DataDir, lang)
	if err != nil {
		return err
	}
	if err := p.config.Paths.EnsureOutputDirs(); err != nil {
		return err
	}

	p.stats = Stats{}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(p.config.Paths.DataDir, name.Source())
		fmt.Printf("\nTranslating %d/%d: %s\n", i+1, len(names), name.Source())

		if _, err := p.translateFile(ctx, name, path, lang); err != nil {
			p.fail("translate", path, err)
			continue
		}
		p.stats.Processed++
	}

	p.printSummary("Translation "+strings.ToUpper(lang), len(names))
	return nil
}

// Backtranslate translates the English translations of lang back into lang
// and scores them against the source sentences
func (p *Processor) Backtranslate(ctx context.Context, lang string) error {
	names, err := layout.SourceFiles(p.config.Paths.DataDir, lang)
	if err != nil {
		return err
	}
	if p.deps.Backend == nil {
		return fmt.Errorf("no translation backend configured")
	}

	p.stats = Stats{}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		translated := filepath.Join(p.config.Paths.TranslationDir, name.Translation())
		if !exists(translated) {
			fmt.Printf("  Skipping %s - not translated yet\n", name.Source())
			p.stats.Skipped++
			continue
		}
		fmt.Printf("\nBacktranslating %d/%d: %s\n", i+1, len(names), name.Translation())

		if err := p.backtranslateFile(ctx, name, translated, lang); err != nil {
			p.fail("backtranslate", translated, err)
			continue
		}
		p.stats.Processed++
	}

	p.printSummary("Backtranslation "+strings.ToUpper(lang), len(names))
	return nil
}

// ParseTranslations parses every translation file into a graph file
func (p *Processor) ParseTranslations(ctx context.Context) error {
	if p.deps.Parser == nil {
		return fmt.Errorf("no AMR parser configured")
	}
	files, err := layout.FilesWithSuffix(p.config.Paths.TranslationDir, layout.TranslationSuffix)
	if err != nil {
		return err
	}

	p.stats = Stats{}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(p.config.Paths.TranslationDir, file)
		fmt.Printf("\nParsing %d/%d: %s\n", i+1, len(files), file)

		if _, err := p.parseFile(ctx, path); err != nil {
			p.fail("parse", path, err)
			continue
		}
		p.stats.Processed++
	}

	p.printSummary("AMR Parsing", len(files))
	return nil
}

// Unify merges the category graph files of every language into one file per
// language, optionally truncating each category file first, and rebuilds
// the unified gold graph file
func (p *Processor) Unify(truncate bool) error {
	dir := p.config.Paths.GraphDir

	if truncate {
		done, err := unify.TruncateAll(dir, layout.GraphSuffix, p.config.TrailingLines)
		if err != nil {
			return err
		}
		fmt.Printf("Truncated %d graph files by %d lines\n", len(done), p.config.TrailingLines)
	}

	p.stats = Stats{}
	for _, lang := range p.config.Languages {
		out, err := unify.Language(dir, lang, p.config.Categories)
		if err != nil {
			p.fail("unify", lang, err)
			continue
		}
		fmt.Printf("Unified %s graphs into %s\n", lang, out)
		p.stats.Processed++
	}

	gold, err := p.UnifyGold()
	if err != nil {
		return err
	}
	fmt.Printf("Unified gold graphs into %s\n", gold)

	p.printSummary("Unification", len(p.config.Languages))
	return nil
}

// UnifyGold concatenates the gold graph files into the unified gold file
func (p *Processor) UnifyGold() (string, error) {
	return unify.Gold(p.config.Paths.GoldAMRDir, p.config.Paths.GoldUnified)
}

// EvaluateSmatch scores the unified graph file of every language against the
// unified gold file
func (p *Processor) EvaluateSmatch(ctx context.Context) error {
	gold := p.config.Paths.GoldUnified
	if !exists(gold) {
		return fmt.Errorf("unified gold graphs not found: %s", gold)
	}

	p.stats = Stats{}
	for _, lang := range p.config.Languages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pred := filepath.Join(p.config.Paths.GraphDir, layout.Unified(lang))
		if !exists(pred) {
			fmt.Printf("  Skipping %s - %s not found\n", lang, pred)
			p.stats.Skipped++
			continue
		}

		fmt.Printf("Smatch for %s:\n", lang)
		if err := p.scoreGraphs(ctx, gold, pred, lang); err != nil {
			p.fail("smatch", pred, err)
			continue
		}
		p.stats.Processed++
	}

	p.printSummary("Smatch", len(p.config.Languages))
	return nil
}

// EvaluateSmatchFiles scores one predicted graph file against one gold file
func (p *Processor) EvaluateSmatchFiles(ctx context.Context, goldPath, predPath string) error {
	lang := ""
	if name, err := layout.Parse(predPath); err == nil {
		lang = name.Lang
	}
	return p.scoreGraphs(ctx, goldPath, predPath, lang)
}

// EvaluateTranslation scores an existing translation file against a gold
// sentence file
func (p *Processor) EvaluateTranslation(ctx context.Context, goldPath, translatedPath string) error {
	gold, err := sentences.Read(goldPath)
	if err != nil {
		return err
	}
	translated, err := sentences.Read(translatedPath)
	if err != nil {
		return err
	}

	lang := ""
	if name, err := layout.Parse(translatedPath); err == nil {
		lang = name.Lang
	}
	return p.evaluate(ctx, translatedPath, lang, gold, translated)
}

// ExtractSources writes the English gold sentence files from the gold graphs.
// The unified gold file is not a category file and is skipped.
func (p *Processor) ExtractSources() ([]string, error) {
	written, err := sentences.ExtractDirectory(p.config.Paths.GoldAMRDir, p.config.Paths.GoldSentenceDir, p.config.Paths.GoldUnified)
	if err != nil {
		return written, err
	}
	for _, path := range written {
		fmt.Printf("Extracted %s\n", path)
	}
	return written, nil
}

// translateFile translates path into the translation directory and scores
// the result when gold sentences exist. It returns the translation path.
func (p *Processor) translateFile(ctx context.Context, name layout.Name, path, lang string) (string, error) {
	if p.deps.Backend == nil {
		return "", fmt.Errorf("no translation backend configured")
	}

	goldPath := filepath.Join(p.config.Paths.GoldSentenceDir, name.GoldSentences())
	if !exists(goldPath) {
		logger.Log.Info("no gold sentences, skipping translation metrics", "gold", goldPath)
		goldPath = ""
	}

	tr := translation.NewTranslator(p.deps.Backend)
	if _, err := tr.LoadSentences(path, goldPath); err != nil {
		return "", err
	}
	fmt.Printf("  Translating %d sentences...\n", len(tr.Sentences()))
	if _, err := tr.Translate(ctx, lang, translation.DefaultTargetLanguage); err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}

	out := filepath.Join(p.config.Paths.TranslationDir, name.Translation())
	if err := tr.SaveTranslation(out); err != nil {
		return "", err
	}
	fmt.Printf("  Saved translation to %s\n", out)

	if goldPath != "" {
		if err := p.evaluate(ctx, path, name.Lang, tr.Gold(), tr.Translation()); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (p *Processor) backtranslateFile(ctx context.Context, name layout.Name, translated, lang string) error {
	source := filepath.Join(p.config.Paths.DataDir, name.Source())

	tr := translation.NewTranslator(p.deps.Backend)
	if _, err := tr.LoadSentences(translated, source); err != nil {
		return err
	}
	if _, err := tr.Translate(ctx, translation.DefaultTargetLanguage, lang); err != nil {
		return fmt.Errorf("backtranslation failed: %w", err)
	}

	out := filepath.Join(p.config.Paths.BacktransDir, name.Backtranslation())
	if err := tr.SaveTranslation(out); err != nil {
		return err
	}
	fmt.Printf("  Saved backtranslation to %s\n", out)

	return p.evaluate(ctx, translated, name.Lang, tr.Gold(), tr.Translation())
}

// parseFile parses a translation file and writes its graph file
func (p *Processor) parseFile(ctx context.Context, translated string) (string, error) {
	name, err := layout.Parse(translated)
	if err != nil {
		return "", err
	}
	sents, err := sentences.Read(translated)
	if err != nil {
		return "", err
	}

	fmt.Printf("  Parsing %d sentences to AMR with %s...\n", len(sents), p.deps.Parser.Name())
	graphs, err := p.deps.Parser.Parse(ctx, sents)
	if err != nil {
		return "", fmt.Errorf("AMR parsing failed: %w", err)
	}
	if len(graphs) != len(sents) {
		return "", fmt.Errorf("parser returned %d graphs for %d sentences", len(graphs), len(sents))
	}

	out := filepath.Join(p.config.Paths.GraphDir, name.Graphs())
	placeholders, err := amr.WriteGraphs(out, graphs)
	if err != nil {
		return "", err
	}
	fmt.Printf("  Graphs saved to %s", out)
	if placeholders > 0 {
		fmt.Printf(" (%d placeholders)", placeholders)
	}
	fmt.Println()
	return out, nil
}

// evaluate scores translated against gold with BLEU and, if an embedder is
// configured, cosine similarity
func (p *Processor) evaluate(ctx context.Context, subject, lang string, gold, translated []string) error {
	bleu := evaluation.BLEU(gold, translated)
	fmt.Printf("  %s\n", evaluation.BLEULine(bleu))
	if err := p.report.AppendBLEU(subject, bleu); err != nil {
		return err
	}
	p.recordSummary(ctx, store.KindBLEU, subject, lang, bleu)

	if p.deps.Embedder != nil {
		cos, err := evaluation.CosineSimilarity(ctx, p.deps.Embedder, gold, translated)
		if err != nil {
			return fmt.Errorf("cosine similarity failed: %w", err)
		}
		fmt.Printf("  %s\n", evaluation.CosineLine(cos))
		if err := p.report.AppendCosine(cos); err != nil {
			return err
		}
		p.recordSummary(ctx, store.KindCosine, subject, lang, cos)
	} else {
		logger.Log.Warn("no embedding backend configured, skipping cosine similarity", "subject", subject)
	}

	return p.report.Separator()
}

func (p *Processor) scoreGraphs(ctx context.Context, gold, pred, lang string) error {
	res, err := smatch.ScoreFiles(gold, pred, p.config.Smatch)
	if err != nil {
		return err
	}
	fmt.Printf("  SMATCH scores: %s\n", res)
	if res.Errors > 0 {
		fmt.Printf("  Warning: %d graphs could not be read\n", res.Errors)
	}

	if err := p.report.AppendSmatch(pred, res.Precision, res.Recall, res.F1); err != nil {
		return err
	}

	subject := filepath.Base(pred)
	metrics.RecordMetric("smatch_precision", subject, res.Precision)
	metrics.RecordMetric("smatch_recall", subject, res.Recall)
	metrics.RecordMetric("smatch_f1", subject, res.F1)
	p.record(ctx, store.Evaluation{
		Kind:      store.KindSmatch,
		Subject:   pred,
		Language:  lang,
		Precision: res.Precision,
		Recall:    res.Recall,
		F1:        res.F1,
		Pairs:     res.Pairs,
	})
	return nil
}

func (p *Processor) recordSummary(ctx context.Context, kind, subject, lang string, s evaluation.Summary) {
	metrics.RecordMetric(kind+"_mean", filepath.Base(subject), s.Mean)
	p.record(ctx, store.Evaluation{
		Kind:     kind,
		Subject:  subject,
		Language: lang,
		Mean:     s.Mean,
		Std:      s.StdDev,
		Pairs:    s.Pairs,
	})
}

func (p *Processor) record(ctx context.Context, e store.Evaluation) {
	if p.deps.Ledger == nil {
		return
	}
	e.RunID = p.config.RunID
	if _, err := p.deps.Ledger.Record(ctx, e); err != nil {
		logger.Log.Warn("failed to record evaluation", "kind", e.Kind, "subject", e.Subject, "error", err)
	}
}

func (p *Processor) fail(stage, subject string, err error) {
	fmt.Fprintf(os.Stderr, "Error processing '%s': %v\n", subject, err)
	logger.Log.Error("stage failed", "stage", stage, "subject", subject, "error", err)
	metrics.FileErrors.WithLabelValues(stage).Inc()
	p.stats.Errors++
}

func (p *Processor) printSummary(title string, total int) {
	fmt.Printf("\n=== %s Summary ===\n", title)
	fmt.Printf("Total: %d\n", total)
	fmt.Printf("Processed: %d\n", p.stats.Processed)
	if p.stats.Skipped > 0 {
		fmt.Printf("Skipped: %d\n", p.stats.Skipped)
	}
	if p.stats.Errors > 0 {
		fmt.Printf("Errors: %d\n", p.stats.Errors)
	}
	fmt.Printf("%s\n", strings.Repeat("=", len(title)+16))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
