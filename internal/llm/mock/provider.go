// Package mock provides a scriptable llm.Provider for tests.
package mock

import (
	"context"
	"encoding/json"
	"sync"

	"socialpulse/internal/llm"
)

// MockProvider satisfies llm.Provider for testing.
type MockProvider struct {
	Name_            string
	Model_           string
	GenerateJSONFunc func(ctx context.Context, prompt string) (json.RawMessage, error)

	mu      sync.Mutex
	Prompts []string // every prompt seen, in call order
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Model() string {
	if m.Model_ == "" {
		return "mock-v1"
	}
	return m.Model_
}

func (m *MockProvider) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt)
	}
	return json.RawMessage(`{}`), nil
}

// CallCount returns how many times GenerateJSON was invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// NewStaticProvider returns a provider that replies with the same raw JSON
// for every prompt.
func NewStaticProvider(reply string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateJSONFunc: func(_ context.Context, _ string) (json.RawMessage, error) {
			return json.RawMessage(reply), nil
		},
	}
}

// NewFailingProvider returns a provider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateJSONFunc: func(_ context.Context, _ string) (json.RawMessage, error) {
			return nil, err
		},
	}
}

// NewSequenceProvider replies with each raw JSON string in order, repeating
// the last one once the sequence is exhausted.
func NewSequenceProvider(replies ...string) *MockProvider {
	i := 0
	var mu sync.Mutex
	return &MockProvider{
		Name_: "mock",
		GenerateJSONFunc: func(_ context.Context, _ string) (json.RawMessage, error) {
			mu.Lock()
			defer mu.Unlock()
			reply := replies[i]
			if i < len(replies)-1 {
				i++
			}
			return json.RawMessage(reply), nil
		},
	}
}

// Compile-time check that MockProvider implements llm.Provider.
var _ llm.Provider = (*MockProvider)(nil)
