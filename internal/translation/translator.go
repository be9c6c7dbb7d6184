package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/snonux/xamr/internal/breaker"
	"codeberg.org/snonux/xamr/internal/logger"
	"codeberg.org/snonux/xamr/internal/metrics"
	"codeberg.org/snonux/xamr/internal/sentences"
)

// DefaultTargetLanguage is used when Translate gets no target
const DefaultTargetLanguage = "en"

// Translator loads a sentence file, translates it sentence by sentence and
// keeps the gold sentences around for evaluation.
type Translator struct {
	backend Backend
	cache   *TranslationCache
	breaker *breaker.Breaker

	toTranslatePath string
	toTranslate     []string
	gold            []string
	translation     []string
}

// NewTranslator creates a translator over backend
func NewTranslator(backend Backend) *Translator {
	return &Translator{
		backend: backend,
		cache:   NewTranslationCache(),
		breaker: breaker.New(breaker.DefaultSettings("translation-" + backend.Name())),
	}
}

// LoadSentences reads the sentences to translate and, if goldPath is not
// empty, the English gold sentences.
func (t *Translator) LoadSentences(toTranslatePath, goldPath string) ([]string, error) {
	src, err := sentences.Read(toTranslatePath)
	if err != nil {
		return nil, err
	}
	t.toTranslatePath = toTranslatePath
	t.toTranslate = src
	t.translation = nil
	logger.Log.Info("sentences to translate loaded", "path", toTranslatePath, "sentences", len(src))

	t.gold = nil
	if goldPath != "" {
		gold, err := sentences.Read(goldPath)
		if err != nil {
			return nil, err
		}
		t.gold = gold
		logger.Log.Info("gold sentences loaded", "path", goldPath, "sentences", len(gold))
	}

	return t.toTranslate, nil
}

// SetSentences replaces the loaded sentences
func (t *Translator) SetSentences(toTranslate, gold []string) {
	t.toTranslatePath = ""
	t.toTranslate = toTranslate
	t.gold = gold
	t.translation = nil
}

// Translate translates every loaded sentence into targetLang (default
// English). The result has one entry per input line, in input order. Lines
// are passed to the backend unmodified; blank lines stay blank.
func (t *Translator) Translate(ctx context.Context, sourceLang, targetLang string) ([]string, error) {
	if targetLang == "" {
		targetLang = DefaultTargetLanguage
	}
	logger.Log.Info("translating", "from", sourceLang, "to", targetLang, "sentences", len(t.toTranslate), "backend", t.backend.Name())

	out := make([]string, len(t.toTranslate))
	for i, sentence := range t.toTranslate {
		translated, err := t.translateOne(ctx, sentence, sourceLang, targetLang)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i+1, err)
		}
		out[i] = translated
	}

	t.translation = out
	return out, nil
}

func (t *Translator) translateOne(ctx context.Context, sentence, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(sentence) == "" {
		return "", nil
	}

	key := cacheKey(sentence, sourceLang, targetLang)
	if cached, ok := t.cache.Get(key); ok {
		metrics.TranslationCacheHits.Inc()
		return cached, nil
	}

	start := time.Now()
	translated, err := breaker.Call(t.breaker, func() (string, error) {
		return t.backend.Translate(ctx, sentence, sourceLang, targetLang)
	})
	metrics.ObserveCall("translation", start)
	if err != nil {
		return "", err
	}
	metrics.SentencesTranslated.WithLabelValues(t.backend.Name()).Inc()

	t.cache.Add(key, translated)
	return translated, nil
}

// SaveTranslation saves the translation to path, one sentence per line
func (t *Translator) SaveTranslation(path string) error {
	if t.translation == nil {
		return fmt.Errorf("nothing translated yet")
	}
	if err := sentences.Write(path, t.translation); err != nil {
		return fmt.Errorf("failed to write translation file: %w", err)
	}
	logger.Log.Info("translations saved", "path", path)
	return nil
}

// SourcePath is the file the sentences were loaded from
func (t *Translator) SourcePath() string { return t.toTranslatePath }

// Sentences returns the loaded source sentences
func (t *Translator) Sentences() []string { return t.toTranslate }

// Gold returns the loaded gold sentences, nil if none were loaded
func (t *Translator) Gold() []string { return t.gold }

// Translation returns the last translation
func (t *Translator) Translation() []string { return t.translation }

// Backend returns the backend in use
func (t *Translator) Backend() Backend { return t.backend }

func cacheKey(sentence, sourceLang, targetLang string) string {
	return strings.ToLower(sourceLang) + "\x00" + strings.ToLower(targetLang) + "\x00" + sentence
}

// TranslationCache stores translations in memory for batch operations
type TranslationCache struct {
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(key, translation string) {
	tc.translations[key] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(key string) (string, bool) {
	translation, ok := tc.translations[key]
	return translation, ok
}

// Len returns the number of cached translations
func (tc *TranslationCache) Len() int {
	return len(tc.translations)
}
