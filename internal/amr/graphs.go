package amr

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/xamr/internal/metrics"
)

// Graph is the PENMAN text of one sentence; the empty graph marks a failed parse
type Graph string

// Placeholder stands in for a sentence the parser could not handle
const Placeholder = "# ::snt\n\n(t / thing \n \t :ARG1-of (r / resemble-01))"

// WriteGraphs writes one block per graph, each followed by a blank line, in
// input order. Empty graphs are written as Placeholder; the number of
// substitutions is returned.
func WriteGraphs(path string, graphs []Graph) (int, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	placeholders := 0
	for _, g := range graphs {
		text := strings.TrimRight(string(g), "\n")
		if strings.TrimSpace(text) == "" {
			text = Placeholder
			placeholders++
		}
		w.WriteString(text)
		w.WriteString("\n\n")
	}

	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write graph file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close graph file: %w", err)
	}

	metrics.GraphsParsed.WithLabelValues("ok").Add(float64(len(graphs) - placeholders))
	metrics.GraphsParsed.WithLabelValues("placeholder").Add(float64(placeholders))
	return placeholders, nil
}

// ReadGraphs reads a graph file written by WriteGraphs or by an AMR release
func ReadGraphs(path string) ([]Graph, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return SplitGraphs(string(content)), nil
}

// SplitGraphs splits text into blank-line-delimited graph blocks. A block
// of comment lines only is joined to the block after it, so a placeholder
// reads back as a single graph. Trailing comment-only text is dropped.
func SplitGraphs(text string) []Graph {
	var (
		out     []Graph
		block   []string
		hasBody bool
	)

	flush := func() {
		if len(block) > 0 {
			out = append(out, Graph(strings.Join(block, "\n")))
		}
		block, hasBody = nil, false
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			if hasBody {
				flush()
			}
			continue
		}
		block = append(block, line)
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			hasBody = true
		}
	}

	if hasBody {
		flush()
	}
	return out
}
