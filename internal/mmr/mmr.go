// Package mmr re-ranks retrieval results with Maximal Marginal Relevance so
// near-duplicate passages do not crowd out the rest of the answer.
package mmr

import (
	"math"

	"scadarag/internal/domain"
)

// Select greedily picks up to k results from candidates, which must already be
// sorted by descending score. Each pick maximizes
//
//	lambda*score - (1-lambda)*max cosine(embedding, picked embeddings)
//
// Results without embeddings are never similar to anything, so without
// embeddings the input order is kept. lambda is clamped to [0, 1].
func Select(candidates []domain.ScoredResult, k int, lambda float64) []domain.ScoredResult {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}
	lambda = min(max(lambda, 0), 1)
	k = min(k, len(candidates))

	selected := make([]domain.ScoredResult, 0, k)
	selected = append(selected, candidates[0])
	remaining := make([]domain.ScoredResult, len(candidates)-1)
	copy(remaining, candidates[1:])

	for len(selected) < k && len(remaining) > 0 {
		best := 0
		bestValue := math.Inf(-1)
		for i, c := range remaining {
			redundancy := math.Inf(-1)
			for _, s := range selected {
				redundancy = max(redundancy, Cosine(c.Embedding, s.Embedding))
			}
			value := lambda*c.Score - (1-lambda)*redundancy
			if value > bestValue {
				best, bestValue = i, value
			}
		}
		selected = append(selected, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty,
// their lengths differ or one has zero magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
