package models

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Catalog groups model IDs by use
type Catalog struct {
	Chat      []string
	Embedding []string
	Other     []string
}

// Categorize sorts model IDs into a Catalog
func Categorize(ids []string) Catalog {
	var c Catalog
	for _, id := range ids {
		switch {
		case strings.Contains(id, "embedding"):
			c.Embedding = append(c.Embedding, id)
		case strings.Contains(id, "tts"), strings.Contains(id, "audio"),
			strings.Contains(id, "dall-e"), strings.Contains(id, "whisper"),
			strings.Contains(id, "image"):
			c.Other = append(c.Other, id)
		case strings.Contains(id, "gpt"), strings.Contains(id, "chat"),
			strings.HasPrefix(id, "o1"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
			c.Chat = append(c.Chat, id)
		default:
			c.Other = append(c.Other, id)
		}
	}

	sort.Strings(c.Chat)
	sort.Strings(c.Embedding)
	sort.Strings(c.Other)
	return c
}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
	out    io.Writer
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
		out:    os.Stdout,
	}
}

// ListAvailableModels prints the available models grouped by use
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .xamr.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, len(models.Models))
	for i, m := range models.Models {
		ids[i] = m.ID
	}
	l.Print(Categorize(ids))
	return nil
}

// Print writes the catalog in the listing format
func (l *Lister) Print(c Catalog) {
	fmt.Fprintln(l.out, "Available OpenAI Models:")
	printGroup(l.out, "Chat Models (translation, AMR parsing):", c.Chat, "No chat models found")
	printGroup(l.out, "Embedding Models (cosine similarity):", c.Embedding, "No embedding models found")
}

func printGroup(w io.Writer, title string, ids []string, empty string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(ids) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
