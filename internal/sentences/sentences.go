package sentences

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sntPrefix marks the sentence comment line of an AMR release record
const sntPrefix = "# ::snt "

// Read returns the lines of a sentence file in order, without terminators.
// A trailing newline ends the last line and does not add an empty sentence;
// empty lines elsewhere are kept because alignment is positional.
func Read(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read sentence file: %w", err)
	}
	return SplitLines(string(content)), nil
}

// SplitLines splits text into lines, accepting both \n and \r\n
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Write stores sentences one per line, creating parent directories
func Write(filename string, sentences []string) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	for _, s := range sentences {
		buf.WriteString(s)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write sentence file: %w", err)
	}
	return nil
}

// ExtractSourceSentences returns the text of every "# ::snt " line of an
// AMR release file, in file order.
func ExtractSourceSentences(amrFile string) ([]string, error) {
	f, err := os.Open(amrFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open AMR file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.HasPrefix(line, sntPrefix) {
			out = append(out, line[len(sntPrefix):])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan AMR file: %w", err)
	}
	return out, nil
}

// ExtractDirectory writes <name>_source.txt into dstDir for every <name>.txt
// AMR file in srcDir except the files in skip, and returns the written paths.
func ExtractDirectory(srcDir, dstDir string, skip ...string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list AMR directory: %w", err)
	}

	skipped := make(map[string]bool, len(skip))
	for _, path := range skip {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		skipped[abs] = true
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(srcDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", e.Name(), err)
		}
		if !skipped[abs] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		sents, err := ExtractSourceSentences(filepath.Join(srcDir, name))
		if err != nil {
			return written, err
		}
		out := filepath.Join(dstDir, strings.TrimSuffix(name, ".txt")+"_source.txt")
		if err := Write(out, sents); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}
