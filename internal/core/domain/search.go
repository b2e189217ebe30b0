package domain

import "time"

const (
	// DefaultTopK is the number of chunks returned when no limit is given
	DefaultTopK = 4

	// DefaultSimilarityThreshold accepts every match
	DefaultSimilarityThreshold = 0.0

	// MaxTopK caps client supplied limits
	MaxTopK = 100
)

// SearchOptions configures a similarity search
type SearchOptions struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"` // Minimum cosine similarity, 0 accepts all
}

// DefaultSearchOptions returns the defaults used for retrieval
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:      DefaultTopK,
		Threshold: DefaultSimilarityThreshold,
	}
}

// Normalize fills zero values with defaults and clamps the limit.
func (o SearchOptions) Normalize() SearchOptions {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.TopK > MaxTopK {
		o.TopK = MaxTopK
	}
	if o.Threshold < -1 {
		o.Threshold = -1
	}
	return o
}

// RankedChunk represents a search result with relevance score
type RankedChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}

// SearchResult is the response of a retrieval request
type SearchResult struct {
	Query   string         `json:"query"`
	Results []*RankedChunk `json:"results"`
	Took    time.Duration  `json:"took" swaggertype:"integer" example:"1500000"`
}

// Answer is the outcome of a question. Only Text is returned to HTTP callers
// of the search endpoint.
type Answer struct {
	Question string         `json:"question"`
	Text     string         `json:"text"`
	Context  []*RankedChunk `json:"context,omitempty"`
	Model    string         `json:"model"`
	Took     time.Duration  `json:"took"`
}
