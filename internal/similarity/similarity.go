// Package similarity ranks stored chunk embeddings against a query vector.
// Every vector index backend shares it so that scores and ordering are the
// same whichever store holds the chunks.
package similarity

import (
	"math"
	"sort"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// TopK scores candidates against query and keeps the best opts.TopK whose
// score reaches opts.Threshold. Candidates must be in insertion order: equal
// scores keep that order.
func TopK(query []float32, candidates []*domain.Chunk, opts domain.SearchOptions) []*domain.RankedChunk {
	opts = opts.Normalize()

	ranked := make([]*domain.RankedChunk, 0, len(candidates))
	for _, c := range candidates {
		score := Cosine(query, c.Embedding)
		if score < opts.Threshold {
			continue
		}
		ranked = append(ranked, &domain.RankedChunk{Chunk: c, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	return ranked
}
