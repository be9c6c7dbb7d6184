package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey is returned when a remote backend has no credentials
var ErrNoAPIKey = errors.New("translation API key not found")

// Backend translates a single sentence
type Backend interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Name() string
}

// Config selects and configures a translation backend
type Config struct {
	Backend string // "openai" or "gemini"
	Model   string
	APIKey  string
	BaseURL string // OpenAI-compatible endpoint override
}

// DefaultConfig returns the default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: "openai",
		Model:   "gpt-4o-mini",
	}
}

// NewBackend creates the backend named by config.Backend
func NewBackend(ctx context.Context, config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Backend {
	case "openai", "":
		return NewOpenAIBackend(config)
	case "gemini":
		return NewGeminiBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unknown translation backend: %s", config.Backend)
	}
}

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"it": "Italian",
	"zh": "Mandarin Chinese",
	"fr": "French",
	"pt": "Portuguese",
	"bg": "Bulgarian",
}

// LanguageName maps an ISO code to the name used in prompts
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

func prompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf("Translate the following %s sentence to %s. Respond with only the translation on a single line, nothing else.\n\n%s",
		LanguageName(sourceLang), LanguageName(targetLang), text)
}

// cleanOutput keeps the reply on one line so files stay line-aligned
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Join(strings.Fields(s), " ")
}
