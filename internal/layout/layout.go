// Package layout knows the on-disk layout of the four-language AMR 2.0
// translation dataset and derives every pipeline file name from a source
// file name.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnexpectedName is returned for file names outside the dataset convention
var ErrUnexpectedName = errors.New("file name does not follow <stem>.sentences.<LANG>.txt")

// Categories included in the dataset for each language, in unification order
var Categories = []string{"bolt", "consensus", "dfa", "proxy", "xinhua"}

// Languages included in the dataset
var Languages = []string{"DE", "ES", "IT", "ZH"}

const (
	// ReleasePrefix starts every per-category file name
	ReleasePrefix = "amr-release-2.0-amrs-test-"

	// TranslationSuffix ends every machine-translated file name
	TranslationSuffix = nmtTag + ".txt"

	// GraphSuffix ends every parsed graph file name
	GraphSuffix = "_AMR.txt"

	sentencesInfix = ".sentences."
	nmtTag         = "_nmt"
	sourceSuffix   = "_source.txt"
	backSuffix     = "_backtranslated.txt"
)

// Paths holds the directories the pipeline reads from and writes to
type Paths struct {
	DataDir         string // source-language sentence files
	GoldSentenceDir string // English gold sentences (<stem>_source.txt)
	GoldAMRDir      string // gold AMR graphs (<stem>.txt)
	TranslationDir  string
	BacktransDir    string
	GraphDir        string
	Report          string // append-only evaluation log
	GoldUnified     string
}

// DefaultPaths returns the layout of the four-translation dataset checkout
func DefaultPaths() Paths {
	return Paths{
		DataDir:         filepath.Join("amr_2-four_translations", "data"),
		GoldSentenceDir: filepath.Join("amr_2-four_translations", "english_source_sentences"),
		GoldAMRDir:      filepath.Join("amr_2-four_translations", "AMR"),
		TranslationDir:  "translations",
		BacktransDir:    "backtranslations",
		GraphDir:        "AMRgraphs",
		Report:          "translation_evaluation.txt",
		GoldUnified:     filepath.Join("amr_2-four_translations", "AMR", "GOLD_AMR_unified.txt"),
	}
}

// EnsureOutputDirs creates the directories the pipeline writes into
func (p Paths) EnsureOutputDirs() error {
	for _, dir := range []string{p.TranslationDir, p.GraphDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Name is a parsed dataset file name: <Stem>.sentences.<Lang>
type Name struct {
	Stem string // e.g. amr-release-2.0-amrs-test-bolt
	Lang string // upper-case language code, e.g. DE
}

// Parse accepts the base name (or path) of any file derived from a source
// file: the source itself, its translation, backtranslation or graph file.
func Parse(filename string) (Name, error) {
	base := filepath.Base(filename)

	var rest string
	switch {
	case strings.HasSuffix(base, TranslationSuffix):
		rest = strings.TrimSuffix(base, TranslationSuffix)
	case strings.HasSuffix(base, GraphSuffix):
		rest = strings.TrimSuffix(base, GraphSuffix)
	case strings.HasSuffix(base, backSuffix):
		rest = strings.TrimSuffix(strings.TrimSuffix(base, backSuffix), nmtTag)
	case strings.HasSuffix(base, ".txt"):
		rest = strings.TrimSuffix(base, ".txt")
	default:
		return Name{}, fmt.Errorf("%s: %w", base, ErrUnexpectedName)
	}

	i := strings.LastIndex(rest, sentencesInfix)
	if i <= 0 {
		return Name{}, fmt.Errorf("%s: %w", base, ErrUnexpectedName)
	}
	n := Name{Stem: rest[:i], Lang: rest[i+len(sentencesInfix):]}
	if n.Lang == "" || strings.ContainsAny(n.Lang, "._") {
		return Name{}, fmt.Errorf("%s: %w", base, ErrUnexpectedName)
	}
	return n, nil
}

// ForCategory builds the name of a per-category file
func ForCategory(category, lang string) Name {
	return Name{Stem: ReleasePrefix + category, Lang: strings.ToUpper(lang)}
}

// Category returns the dataset category of the name, or "" if the stem does
// not carry the release prefix.
func (n Name) Category() string {
	if !strings.HasPrefix(n.Stem, ReleasePrefix) {
		return ""
	}
	return strings.TrimPrefix(n.Stem, ReleasePrefix)
}

func (n Name) base() string {
	return n.Stem + sentencesInfix + n.Lang
}

// Source is the source-language sentence file name
func (n Name) Source() string { return n.base() + ".txt" }

// Translation is the machine-translated English file name
func (n Name) Translation() string { return n.base() + TranslationSuffix }

// Backtranslation is the name of the translation rendered back into Lang
func (n Name) Backtranslation() string {
	return n.base() + nmtTag + backSuffix
}

// Graphs is the parsed AMR graph file name
func (n Name) Graphs() string { return n.base() + GraphSuffix }

// GoldAMR is the gold graph file shared by all languages of a category
func (n Name) GoldAMR() string { return n.Stem + ".txt" }

// GoldSentences is the English gold sentence file of a category
func (n Name) GoldSentences() string { return n.Stem + sourceSuffix }

// Unified is the per-language file holding every category's graphs
func Unified(lang string) string {
	return "Unified-test-sentences." + strings.ToUpper(lang) + GraphSuffix
}

// SourceFiles lists the source files of one language in dataDir, ordered by
// category. Files that do not follow the naming convention are ignored.
func SourceFiles(dataDir, lang string) ([]Name, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	lang = strings.ToUpper(lang)
	var names []Name
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, err := Parse(e.Name())
		if err != nil || n.Source() != e.Name() || !strings.EqualFold(n.Lang, lang) {
			continue
		}
		names = append(names, n)
	}

	sort.Slice(names, func(i, j int) bool {
		ci, cj := categoryRank(names[i]), categoryRank(names[j])
		if ci != cj {
			return ci < cj
		}
		return names[i].Stem < names[j].Stem
	})
	return names, nil
}

// FilesWithSuffix lists names in dir that end in suffix, sorted
func FilesWithSuffix(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func categoryRank(n Name) int {
	c := n.Category()
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}
