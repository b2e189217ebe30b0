package postprocessors

import (
	"strings"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// TokenChunkConfig configures the token chunker.
type TokenChunkConfig struct {
	// ChunkSize is the maximum number of tokens per chunk
	ChunkSize int

	// Overlap is the number of tokens repeated at the start of the next chunk
	Overlap int

	// MinChunkSizeChars is the minimum chunk length before a chunk may be
	// cut back to the last sentence boundary
	MinChunkSizeChars int

	// MinChunkLengthToEmbed is the shortest trailing chunk, in bytes. A shorter
	// remnant takes tokens from the end of the previous chunk.
	MinChunkLengthToEmbed int

	// MaxNumChunks caps the chunks produced per input chunk
	MaxNumChunks int
}

// DefaultTokenChunkConfig returns the default splitting policy.
func DefaultTokenChunkConfig() TokenChunkConfig {
	return TokenChunkConfig{
		ChunkSize:             800,
		Overlap:               0,
		MinChunkSizeChars:     350,
		MinChunkLengthToEmbed: 5,
		MaxNumChunks:          10000,
	}
}

func (c TokenChunkConfig) withDefaults() TokenChunkConfig {
	d := DefaultTokenChunkConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		c.Overlap = 0
	}
	if c.MinChunkSizeChars < 0 {
		c.MinChunkSizeChars = 0
	}
	if c.MinChunkLengthToEmbed < 0 {
		c.MinChunkLengthToEmbed = 0
	}
	if c.MaxNumChunks <= 0 {
		c.MaxNumChunks = d.MaxNumChunks
	}
	return c
}

// TokenChunker splits content so that no chunk holds more than ChunkSize
// tokens. It is the first processor in the pipeline (Order = 0).
type TokenChunker struct {
	config TokenChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*TokenChunker)(nil)

// NewTokenChunker creates a new chunker with the given config.
func NewTokenChunker(config TokenChunkConfig) *TokenChunker {
	return &TokenChunker{config: config.withDefaults()}
}

// Process splits every input chunk. Positions run across all inputs.
func (c *TokenChunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	position := 0

	for _, chunk := range chunks {
		newChunks := c.splitContent(chunk, &position)
		result = append(result, newChunks...)
	}

	return result
}

// Name returns the processor name.
func (c *TokenChunker) Name() string {
	return "token-chunker"
}

// Order returns 0 - chunker should be first.
func (c *TokenChunker) Order() int {
	return 0
}

// splitContent cuts one chunk at token boundaries. Text between two
// consecutive output chunks is whitespace only, so joining the chunks
// reproduces the input modulo whitespace.
func (c *TokenChunker) splitContent(in driven.Chunk, position *int) []driven.Chunk {
	content := in.Content
	tokens := Tokenize(content)
	if len(tokens) == 0 {
		return nil
	}

	var spans []span
	start := 0
	for start < len(tokens) && len(spans) < c.config.MaxNumChunks {
		end := min(start+c.config.ChunkSize, len(tokens))
		if end < len(tokens) {
			end = c.sentenceCut(content, tokens, start, end)
		}
		spans = append(spans, span{start, end})

		if end >= len(tokens) {
			break
		}
		next := end - c.config.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	spans = c.growRemnant(tokens, spans)

	chunks := make([]driven.Chunk, 0, len(spans))
	for _, sp := range spans {
		from, to := tokens[sp.start].Start, tokens[sp.end-1].End
		chunks = append(chunks, driven.Chunk{
			Content:     content[from:to],
			Position:    *position,
			StartOffset: in.StartOffset + from,
			EndOffset:   in.StartOffset + to,
			Metadata:    in.Metadata,
		})
		*position++
	}
	return chunks
}

// span is a half-open token range.
type span struct {
	start, end int
}

// sentenceCut moves end back to just after the last sentence boundary in
// the window, provided the shortened chunk keeps MinChunkSizeChars.
func (c *TokenChunker) sentenceCut(content string, tokens []Token, start, end int) int {
	base := tokens[start].Start
	for j := end - 1; j > start; j-- {
		if tokens[j].End-base <= c.config.MinChunkSizeChars {
			break
		}
		if isSentenceEnd(content, tokens, j) {
			return j + 1
		}
	}
	return end
}

func isSentenceEnd(content string, tokens []Token, j int) bool {
	switch content[tokens[j].Start:tokens[j].End] {
	case ".", "!", "?":
		return true
	}
	if j+1 < len(tokens) {
		gap := content[tokens[j].End:tokens[j+1].Start]
		return strings.Contains(gap, "\n")
	}
	return false
}

// growRemnant lengthens a trailing span shorter than MinChunkLengthToEmbed
// by moving its start back into the previous span. The previous span only
// shrinks and the remnant never passes ChunkSize tokens, so the budget holds
// for both. The previous span keeps at least one token of its own.
func (c *TokenChunker) growRemnant(tokens []Token, spans []span) []span {
	n := len(spans)
	if n < 2 {
		return spans
	}
	prev, last := spans[n-2], spans[n-1]
	contiguous := prev.end == last.start

	spanLen := func(sp span) int {
		return tokens[sp.end-1].End - tokens[sp.start].Start
	}
	for spanLen(last) < c.config.MinChunkLengthToEmbed &&
		last.start-1 > prev.start &&
		last.end-last.start < c.config.ChunkSize {
		last.start--
		if contiguous {
			prev.end = last.start
		}
	}

	spans[n-2], spans[n-1] = prev, last
	return spans
}
