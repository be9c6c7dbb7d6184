package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// MockTranslator mocks a translation backend
type MockTranslator struct {
	Translations map[string]string
	Errors       map[string]error

	mu    sync.Mutex
	Calls []string
}

// Translate mocks translating text
func (m *MockTranslator) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("Translate: %s (%s->%s)", text, fromLang, toLang))
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err, ok := m.Errors[text]; ok {
		return "", err
	}

	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}

	// Default mock translation
	return fmt.Sprintf("mock translation of %s", text), nil
}

// Name returns the backend name
func (m *MockTranslator) Name() string { return "mock" }

// CallCount returns the number of Translate calls
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockEmbedder produces deterministic bag-of-words vectors, so identical
// sentences embed identically and disjoint sentences are orthogonal.
type MockEmbedder struct {
	Dim   int
	Err   error
	Calls int
}

// Embed mocks a sentence-embedding model
func (m *MockEmbedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	dim := m.Dim
	if dim <= 0 {
		dim = 64
	}

	out := make([][]float32, len(sentences))
	for i, s := range sentences {
		vec := make([]float32, dim)
		for _, tok := range strings.Fields(strings.ToLower(s)) {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%uint32(dim)]++
		}
		out[i] = vec
	}
	return out, nil
}

// Name returns the backend name
func (m *MockEmbedder) Name() string { return "mock" }
