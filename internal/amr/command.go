package amr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"codeberg.org/snonux/xamr/internal/metrics"
)

// CommandParser runs an external sentence-to-graph program. The program
// reads one sentence per line on stdin and writes one graph per sentence to
// stdout, graphs separated by a blank line. Comment lines followed by a blank
// line belong to the next graph, as in the placeholder. A block that is not a
// readable graph marks a failed sentence.
type CommandParser struct {
	command  string
	args     []string
	modelDir string
	device   string
}

// NewCommandParser checks that the configured program is installed
func NewCommandParser(config *Config) (*CommandParser, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("AMR parser command is required")
	}
	if _, err := exec.LookPath(config.Command); err != nil {
		return nil, fmt.Errorf("AMR parser command %s not found: %w", config.Command, err)
	}

	return &CommandParser{
		command:  config.Command,
		args:     config.Args,
		modelDir: config.ModelDir,
		device:   config.Device,
	}, nil
}

// Parse runs the program once for the whole batch
func (c *CommandParser) Parse(ctx context.Context, sentences []string) ([]Graph, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	args := append([]string{}, c.args...)
	if c.modelDir != "" {
		args = append(args, "--model-dir", c.modelDir)
	}
	if c.device != "" {
		args = append(args, "--device", c.device)
	}

	var input strings.Builder
	for _, s := range sentences {
		input.WriteString(strings.ReplaceAll(s, "\n", " "))
		input.WriteByte('\n')
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Stdin = strings.NewReader(input.String())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.ObserveCall("amr", start)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w\nOutput: %s", c.command, err, stderr.String())
	}

	blocks := SplitGraphs(stdout.String())
	if len(blocks) != len(sentences) {
		return nil, fmt.Errorf("%s returned %d graphs for %d sentences", c.command, len(blocks), len(sentences))
	}

	graphs := make([]Graph, len(blocks))
	for i, b := range blocks {
		graphs[i] = validate(b)
	}
	return graphs, nil
}

// Name returns the parser name
func (c *CommandParser) Name() string { return "command:" + c.command }
