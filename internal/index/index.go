// Package index builds an immutable TF-IDF index over document chunks and
// ranks chunks against free-text queries by cosine similarity.
package index

import (
	"math"
	"sort"

	"scadarag/internal/domain"
	"scadarag/internal/tokenizer"
)

// DefaultTopK is used when a caller asks for a non-positive number of results.
const DefaultTopK = 5

// normEpsilon floors chunk norms so empty chunks never divide by zero.
const normEpsilon = 1e-12

// Index holds idf weights and the chunks they were computed from. It is never
// mutated after Build returns; a corpus change means building a new one.
type Index struct {
	idf    map[string]float64
	chunks []domain.Chunk
}

// Build chunks every document and indexes the result. Documents whose chunker
// fails contribute a single empty chunk instead of an error.
func Build(docs []domain.Document, chunker domain.Chunker) *Index {
	var chunks []domain.Chunk
	for _, d := range docs {
		cs, err := chunker.Chunk(d)
		if err != nil {
			cs = []domain.Chunk{{ID: d.ID + ":0", DocumentID: d.ID, Title: d.Title}}
		}
		chunks = append(chunks, cs...)
	}
	return BuildFromChunks(chunks)
}

// BuildFromChunks indexes already cut chunks, keeping their order.
func BuildFromChunks(chunks []domain.Chunk) *Index {
	df := make(map[string]int)
	indexed := make([]domain.Chunk, len(chunks))
	for i, ch := range chunks {
		ch.TF = tokenizer.Counts(ch.Text)
		for term := range ch.TF {
			df[term]++
		}
		indexed[i] = ch
	}

	n := float64(max(len(chunks), 1))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((n+1)/(float64(count)+1)) + 1
	}

	for i := range indexed {
		indexed[i].Norm = max(weightNorm(indexed[i].TF, idf), normEpsilon)
	}
	return &Index{idf: idf, chunks: indexed}
}

// IDF returns the weight of term, or 0 when the corpus never saw it.
func (ix *Index) IDF(term string) float64 { return ix.idf[term] }

// Terms returns the size of the vocabulary.
func (ix *Index) Terms() int { return len(ix.idf) }

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Chunks returns the indexed chunks in build order. Callers must not modify
// the returned chunks.
func (ix *Index) Chunks() []domain.Chunk { return ix.chunks }

// Search ranks chunks by cosine similarity of tf*idf vectors and returns the
// k best with a strictly positive score, highest first. Equal scores keep
// build order.
func (ix *Index) Search(query string, k int) []domain.ScoredResult {
	if k <= 0 {
		k = DefaultTopK
	}
	qtf := tokenizer.Counts(query)
	qterms := sortedTerms(qtf)
	qnorm := weightNorm(qtf, ix.idf)
	if qnorm == 0 || len(ix.chunks) == 0 {
		return nil
	}

	var results []domain.ScoredResult
	for _, ch := range ix.chunks {
		dot := 0.0
		for _, term := range qterms {
			cc, ok := ch.TF[term]
			if !ok {
				continue
			}
			w := ix.idf[term]
			dot += float64(qtf[term]) * w * float64(cc) * w
		}
		score := dot / (qnorm * ch.Norm)
		if score <= 0 {
			continue
		}
		results = append(results, domain.ScoredResult{Chunk: ch, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func weightNorm(tf map[string]int, idf map[string]float64) float64 {
	sum := 0.0
	for _, term := range sortedTerms(tf) {
		w := float64(tf[term]) * idf[term]
		sum += w * w
	}
	return math.Sqrt(sum)
}

// sortedTerms fixes the summation order so scores are reproducible.
func sortedTerms(tf map[string]int) []string {
	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
