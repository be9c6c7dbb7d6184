package amr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/xamr/internal/breaker"
	"codeberg.org/snonux/xamr/internal/logger"
	"codeberg.org/snonux/xamr/internal/metrics"
)

const systemPrompt = `You are an Abstract Meaning Representation parser.
Given an English sentence, reply with its AMR graph in PENMAN notation using PropBank frames, as in the AMR 2.0 release.
Reply with the graph only: no explanation, no code fences, no comments.`

// OpenAIParser asks a chat model for one graph per sentence and keeps only
// replies that read as PENMAN
type OpenAIParser struct {
	model   string
	client  *openai.Client
	breaker *breaker.Breaker
}

// NewOpenAIParser creates an OpenAI-backed parser
func NewOpenAIParser(config *Config) (*OpenAIParser, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIParser{
		model:   model,
		client:  openai.NewClientWithConfig(cfg),
		breaker: breaker.New(breaker.DefaultSettings("amr-openai")),
	}, nil
}

// Parse parses each sentence with one chat completion
func (p *OpenAIParser) Parse(ctx context.Context, sentences []string) ([]Graph, error) {
	graphs := make([]Graph, len(sentences))

	for i, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}

		reply, err := p.complete(ctx, s)
		if err != nil {
			// a dead endpoint fails the batch so a fallback can take over
			if ctx.Err() != nil || errors.Is(err, breaker.ErrOpen) {
				return nil, err
			}
			logger.Log.Warn("AMR parse failed", "sentence", i+1, "error", err)
			continue
		}

		tree, err := Parse(stripFences(reply))
		if err != nil {
			logger.Log.Debug("model reply is not a PENMAN graph", "sentence", i+1, "error", err)
			continue
		}
		graphs[i] = Graph("# ::snt " + s + "\n" + tree.Format())
	}

	return graphs, nil
}

func (p *OpenAIParser) complete(ctx context.Context, sentence string) (string, error) {
	start := time.Now()
	defer metrics.ObserveCall("amr", start)

	return breaker.Call(p.breaker, func() (string, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: sentence},
			},
			MaxTokens:   1024,
			Temperature: 0,
		})
		if err != nil {
			return "", fmt.Errorf("OpenAI API error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no graph returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// stripFences removes a markdown code fence around the reply
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// Name returns the parser name
func (p *OpenAIParser) Name() string { return "openai:" + p.model }
