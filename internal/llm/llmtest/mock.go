// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/screening-agent/internal/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

	mu      sync.Mutex
	prompts []string
}

// Respond returns a MockClient whose calls all answer with text.
func Respond(text string) *MockClient {
	return &MockClient{
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) { return text, nil },
		GenerateJSONFunc:    func(context.Context, string, llm.ModelTier) (string, error) { return text, nil },
	}
}

// Fail returns a MockClient whose calls all fail with err.
func Fail(err error) *MockClient {
	return &MockClient{
		GenerateContentFunc: func(context.Context, string, llm.ModelTier) (string, error) { return "", err },
		GenerateJSONFunc:    func(context.Context, string, llm.ModelTier) (string, error) { return "", err },
	}
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

func (m *MockClient) GetModel(llm.ModelTier) string { return "mock-model" }

func (m *MockClient) Close() error { return nil }

// Calls returns how many generation calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent prompt, or "" if none.
func (m *MockClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *MockClient) record(prompt string) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
}
