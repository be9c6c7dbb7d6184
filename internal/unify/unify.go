// Package unify merges per-category graph files into one file per language
// and trims obsolete trailing graphs from parser output.
package unify

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codeberg.org/snonux/xamr/internal/layout"
	"codeberg.org/snonux/xamr/internal/logger"
)

// DefaultTrailingLines is the size of the obsolete graph block the parser
// appends to each file.
const DefaultTrailingLines = 5

// Truncate drops the last n lines of filename in place. Preceding lines keep
// their order and bytes; a file with n or fewer lines ends up empty.
func Truncate(filename string, n int) error {
	if n < 0 {
		return fmt.Errorf("invalid line count: %d", n)
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	keep := len(lines) - n
	if keep < 0 {
		keep = 0
	}

	return writeAtomic(filename, bytes.Join(lines[:keep], nil))
}

// TruncateAll truncates every file in dir that ends in suffix
func TruncateAll(dir, suffix string, n int) ([]string, error) {
	names, err := layout.FilesWithSuffix(dir, suffix)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range names {
		if strings.HasPrefix(name, "Unified-") {
			continue
		}
		path := filepath.Join(dir, name)
		if err := Truncate(path, n); err != nil {
			return done, err
		}
		done = append(done, path)
	}
	return done, nil
}

// Language concatenates the category graph files of lang found in dir, in
// the given category order, into dir/Unified-test-sentences.<LANG>_AMR.txt.
// The output is recreated on every call.
func Language(dir, lang string, categories []string) (string, error) {
	var inputs []string
	for _, cat := range categories {
		inputs = append(inputs, filepath.Join(dir, layout.ForCategory(cat, lang).Graphs()))
	}

	out := filepath.Join(dir, layout.Unified(lang))
	if err := Concat(out, inputs); err != nil {
		return "", err
	}

	logger.Log.Debug("unified language graphs", "lang", lang, "files", len(inputs), "output", out)
	return out, nil
}

// Gold concatenates every gold AMR file in dir (sorted, skipping out itself)
// into out.
func Gold(dir, out string) (string, error) {
	names, err := layout.FilesWithSuffix(dir, ".txt")
	if err != nil {
		return "", err
	}
	sort.Strings(names)

	outAbs, err := filepath.Abs(out)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", out, err)
	}
	var inputs []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if abs == outAbs {
			continue
		}
		inputs = append(inputs, path)
	}

	if err := Concat(out, inputs); err != nil {
		return "", err
	}
	return out, nil
}

// Concat writes the concatenation of inputs to out
func Concat(out string, inputs []string) error {
	var buf bytes.Buffer
	for _, in := range inputs {
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", in, err)
		}
		_, err = io.Copy(&buf, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", in, err)
		}
	}
	return writeAtomic(out, buf.Bytes())
}

// writeAtomic replaces path via a temporary file in the same directory
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
