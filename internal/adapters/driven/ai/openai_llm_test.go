package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

func TestNewOpenAILLM_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAILLM(LLMConfig{}); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestOpenAILLM_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected model gpt-4o-mini, got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != driven.RoleSystem {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.MaxTokens != 256 {
			t.Errorf("expected max_tokens 256, got %d", req.MaxTokens)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Revenue rose 4%.\n"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	llm, err := NewOpenAILLM(LLMConfig{APIKey: "sk-test", BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := llm.Complete(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "system"},
		{Role: driven.RoleUser, Content: "How did revenue change?"},
	}, driven.CompletionOptions{MaxTokens: 256})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Revenue rose 4%." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestOpenAILLM_Complete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"invalid json", http.StatusOK, `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			llm, _ := NewOllamaLLM(LLMConfig{BaseURL: server.URL})
			if _, err := llm.Complete(context.Background(), nil, driven.CompletionOptions{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpenAILLM_Complete_Deadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	llm, _ := NewOllamaLLM(LLMConfig{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := llm.Complete(ctx, nil, driven.CompletionOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestOpenAILLM_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	llm, _ := NewOllamaLLM(LLMConfig{BaseURL: server.URL})
	if err := llm.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
	if err := llm.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
