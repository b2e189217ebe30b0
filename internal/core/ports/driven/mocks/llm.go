package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService records prompts and returns a canned reply.
type MockLLMService struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests [][]driven.ChatMessage

	CompleteFn func(ctx context.Context, messages []driven.ChatMessage) (string, error)
}

// NewMockLLMService creates a MockLLMService answering with reply
func NewMockLLMService(reply string) *MockLLMService {
	return &MockLLMService{reply: reply}
}

func (m *MockLLMService) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, messages)
	reply, err := m.reply, m.err
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, messages)
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// SetError makes Complete fail with err
func (m *MockLLMService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns every message list passed to Complete
func (m *MockLLMService) Requests() [][]driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]driven.ChatMessage, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastPrompt joins the contents of the last request
func (m *MockLLMService) LastPrompt() string {
	reqs := m.Requests()
	if len(reqs) == 0 {
		return ""
	}
	var s string
	for _, msg := range reqs[len(reqs)-1] {
		s += msg.Content + "\n"
	}
	return s
}
