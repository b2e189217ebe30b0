package ai

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/postprocessors"
	"github.com/custodia-labs/finance-assist/internal/similarity"
)

// Ensure HashingEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*HashingEmbedding)(nil)

// DefaultHashingDimensions is the vector size of the local embedder
const DefaultHashingDimensions = 384

// HashingEmbedding projects word unigrams and bigrams into a fixed number of
// signed buckets. It needs no network and gives lexical, not semantic, recall.
type HashingEmbedding struct {
	dimensions int
}

// NewHashingEmbedding creates a local embedder. dimensions <= 0 uses the default.
func NewHashingEmbedding(dimensions int) *HashingEmbedding {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingEmbedding{dimensions: dimensions}
}

func (h *HashingEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashingEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(query), nil
}

func (h *HashingEmbedding) Dimensions() int {
	return h.dimensions
}

func (h *HashingEmbedding) Model() string {
	return "local-hashing"
}

func (h *HashingEmbedding) HealthCheck(ctx context.Context) error {
	return nil
}

func (h *HashingEmbedding) Close() error {
	return nil
}

func (h *HashingEmbedding) vector(text string) []float32 {
	v := make([]float32, h.dimensions)
	words := contentWords(text)
	for i, w := range words {
		h.add(v, w, 1)
		if i > 0 {
			h.add(v, words[i-1]+" "+w, 0.5)
		}
	}
	similarity.Normalize(v)
	return v
}

func (h *HashingEmbedding) add(v []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	bucket := int(sum % uint64(h.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[bucket] += weight
}

// contentWords lowercases the word tokens of text and drops punctuation
// and stop words.
func contentWords(text string) []string {
	var words []string
	for _, tok := range postprocessors.Tokenize(text) {
		w := strings.ToLower(text[tok.Start:tok.End])
		if !isWord(w) || stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

func isWord(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r > 127 {
			return true
		}
	}
	return false
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "did": true, "do": true, "does": true, "for": true,
	"from": true, "has": true, "have": true, "how": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "was": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "why": true, "with": true,
}
