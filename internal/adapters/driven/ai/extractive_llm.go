package ai

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Ensure ExtractiveLLM implements LLMService
var _ driven.LLMService = (*ExtractiveLLM)(nil)

const (
	// DefaultExtractiveSentences is the number of sentences quoted in a reply
	DefaultExtractiveSentences = 3

	// NoAnswerReply is returned when no context sentence shares a word with the question
	NoAnswerReply = "The provided documents do not contain information about this question."
)

// sentenceEnd matches terminal punctuation followed by space, or a line break.
// Decimal points such as 14.2 are not boundaries.
var sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)

// ExtractiveLLM answers offline by quoting the context sentences that share
// the most words with the question. It reads the prompt layout produced by
// the answer engine: question first, passages between ContextDelimiter lines.
type ExtractiveLLM struct {
	sentences int
}

// NewExtractiveLLM creates an offline answerer quoting up to sentences sentences.
func NewExtractiveLLM(sentences int) *ExtractiveLLM {
	if sentences <= 0 {
		sentences = DefaultExtractiveSentences
	}
	return &ExtractiveLLM{sentences: sentences}
}

type scoredSentence struct {
	text  string
	score int
	order int
}

func (e *ExtractiveLLM) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.CompletionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == driven.RoleUser {
			prompt = messages[i].Content
			break
		}
	}

	parts := strings.Split(prompt, driven.ContextDelimiter)
	if len(parts) < 3 {
		return NoAnswerReply, nil
	}
	question := parts[0]
	if i := strings.LastIndex(question, "\n\n"); i >= 0 {
		question = question[:i]
	}
	passages := parts[1 : len(parts)-1]

	terms := make(map[string]bool)
	for _, w := range contentWords(question) {
		terms[w] = true
	}

	var candidates []scoredSentence
	for _, passage := range passages {
		for _, s := range splitSentences(passage) {
			score := 0
			seen := make(map[string]bool)
			for _, w := range contentWords(s) {
				if terms[w] && !seen[w] {
					seen[w] = true
					score++
				}
			}
			if score > 0 {
				candidates = append(candidates, scoredSentence{text: s, score: score, order: len(candidates)})
			}
		}
	}
	if len(candidates) == 0 {
		return NoAnswerReply, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > e.sentences {
		candidates = candidates[:e.sentences]
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].order < candidates[j].order
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.text
	}
	return strings.Join(out, " "), nil
}

func (e *ExtractiveLLM) Model() string {
	return "extractive"
}

func (e *ExtractiveLLM) Ping(ctx context.Context) error {
	return nil
}

func (e *ExtractiveLLM) Close() error {
	return nil
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
