package driven

import (
	"context"
)

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContextDelimiter is the line that separates retrieved passages inside a
// user prompt.
const ContextDelimiter = "---------------------"

// ChatMessage is one turn of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions tunes a single completion.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// LLMService provides chat completions for answering questions
type LLMService interface {
	// Complete returns the assistant reply to the given messages
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
