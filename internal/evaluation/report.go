package evaluation

import (
	"fmt"
	"os"
	"path/filepath"
)

// Report appends evaluation results to a plain-text log
type Report struct {
	path string
}

// NewReport creates a report writer for path
func NewReport(path string) *Report {
	return &Report{path: path}
}

// Path returns the log file path
func (r *Report) Path() string { return r.path }

// BLEULine formats a BLEU summary the way the log records it
func BLEULine(s Summary) string {
	return fmt.Sprintf("Bleu Score (mean of all sentences): %2.4f; σ = %2.4f", s.Mean, s.StdDev)
}

// CosineLine formats a cosine-similarity summary the way the log records it
func CosineLine(s Summary) string {
	return fmt.Sprintf("Cosine similarity gold––translation (mean of all sentences): %2.4f; σ = %2.4f", s.Mean, s.StdDev)
}

// AppendBLEU records the BLEU result for the file that was translated
func (r *Report) AppendBLEU(translatedFrom string, s Summary) error {
	return r.append("\n\n## " + translatedFrom + "\n" + BLEULine(s) + "\n")
}

// AppendCosine records the cosine-similarity result
func (r *Report) AppendCosine(s Summary) error {
	return r.append(CosineLine(s))
}

// AppendSmatch records a Smatch result for a predicted graph file
func (r *Report) AppendSmatch(pred string, precision, recall, f1 float64) error {
	return r.append(fmt.Sprintf("\n\n## Smatch %s\nPrecision: %.4f; Recall: %.4f; F-score: %.4f\n", pred, precision, recall, f1))
}

// Separator ends the block of one source file
func (r *Report) Separator() error {
	return r.append("\n---")
}

func (r *Report) append(text string) error {
	if dir := filepath.Dir(r.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open evaluation report: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to append to evaluation report: %w", err)
	}
	return nil
}
