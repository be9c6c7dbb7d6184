package amr

import (
	"context"
	"fmt"

	"codeberg.org/snonux/xamr/internal/logger"
)

// Parser turns English sentences into AMR graphs
type Parser interface {
	// Parse returns one graph per sentence, in order. A sentence the model
	// could not parse yields an empty graph; an error means the whole batch
	// failed.
	Parse(ctx context.Context, sentences []string) ([]Graph, error)

	// Name returns the parser name
	Name() string
}

// Config holds configuration for AMR parsers
type Config struct {
	Backend  string // "command" or "openai"
	Fallback string // optional backend used when Backend fails

	// command settings
	Command  string
	Args     []string
	ModelDir string
	Device   string

	// openai settings
	Model   string
	APIKey  string
	BaseURL string
}

// DefaultConfig returns the default parser configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: "command",
		Command: "amr-stog",
		Model:   "gpt-4o",
	}
}

// NewParser creates the parser named by config.Backend, wrapped with the
// fallback backend if one is configured
func NewParser(config *Config) (Parser, error) {
	if config == nil {
		config = DefaultConfig()
	}

	primary, err := newBackend(config.Backend, config)
	if err != nil {
		return nil, err
	}
	if config.Fallback == "" || config.Fallback == config.Backend {
		return primary, nil
	}

	fallback, err := newBackend(config.Fallback, config)
	if err != nil {
		logger.Log.Warn("AMR fallback parser unavailable", "backend", config.Fallback, "error", err)
		return primary, nil
	}
	return WithFallback(primary, fallback), nil
}

func newBackend(name string, config *Config) (Parser, error) {
	switch name {
	case "command", "":
		return NewCommandParser(config)
	case "openai":
		return NewOpenAIParser(config)
	default:
		return nil, fmt.Errorf("unknown AMR parser: %s", name)
	}
}

// ParserWithFallback wraps a primary parser with a fallback option
type ParserWithFallback struct {
	primary  Parser
	fallback Parser
}

// WithFallback creates a parser that hands a failed batch to fallback, and
// retries sentences the primary could not parse
func WithFallback(primary, fallback Parser) Parser {
	return &ParserWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// Parse tries the primary parser first
func (p *ParserWithFallback) Parse(ctx context.Context, sentences []string) ([]Graph, error) {
	graphs, err := p.primary.Parse(ctx, sentences)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		fmt.Printf("Primary parser (%s) failed: %v. Falling back to %s\n",
			p.primary.Name(), err, p.fallback.Name())
		return p.fallback.Parse(ctx, sentences)
	}

	var (
		failed []int
		retry  []string
	)
	for i, g := range graphs {
		if g == "" && sentences[i] != "" {
			failed = append(failed, i)
			retry = append(retry, sentences[i])
		}
	}
	if len(retry) == 0 {
		return graphs, nil
	}

	logger.Log.Info("retrying failed sentences on fallback parser", "parser", p.fallback.Name(), "sentences", len(retry))
	again, err := p.fallback.Parse(ctx, retry)
	if err != nil {
		logger.Log.Warn("fallback parser failed", "parser", p.fallback.Name(), "error", err)
		return graphs, nil
	}
	for k, i := range failed {
		if k < len(again) {
			graphs[i] = again[k]
		}
	}
	return graphs, nil
}

// Name returns the parser name
func (p *ParserWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// validate returns g if it reads as a PENMAN graph and the empty graph otherwise
func validate(g Graph) Graph {
	if _, err := Parse(string(g)); err != nil {
		logger.Log.Debug("discarding unreadable graph", "error", err)
		return ""
	}
	return g
}
