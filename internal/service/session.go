// Package service owns a retrieval session: the ingested corpus, the index
// built over it and the optional embeddings used for diversity re-ranking.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"scadarag/internal/corpus"
	"scadarag/internal/domain"
	"scadarag/internal/embedding"
	"scadarag/internal/index"
	"scadarag/internal/mmr"
	"scadarag/internal/summarizer"
)

var (
	// ErrNoIndex is returned by Query before anything was ingested or after Reset.
	ErrNoIndex = errors.New("no index: ingest documents first")
	// ErrDisposed is returned by every call made after Dispose.
	ErrDisposed = errors.New("retrieval session disposed")
)

// NoMatchAnswer is the answer text when a query matches no passage.
const NoMatchAnswer = "No relevant passages found in the loaded documents."

// Options tune query behaviour.
type Options struct {
	TopK             int
	CandidatePool    int
	MMRLambda        float64
	SummarySentences int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{TopK: index.DefaultTopK, CandidatePool: 4 * index.DefaultTopK, MMRLambda: 0.7, SummarySentences: 3}
}

// Answer is the reply to a query: an extractive summary of the hits and the
// hits themselves, best first.
type Answer struct {
	Text string
	Hits []domain.ScoredResult
}

// Stats describes the current state of a session.
type Stats struct {
	Documents int
	Chunks    int
	Terms     int
	Indexed   bool
	Embedder  string
	Embedded  bool
}

// snapshot is everything a query reads. It is replaced wholesale on every
// corpus change and never mutated afterwards.
type snapshot struct {
	index      *index.Index
	embeddings map[string][]float64
}

// Session is safe for concurrent use. Writers serialize on mu; queries work
// on the snapshot current when they started.
type Session struct {
	opts       Options
	chunker    domain.Chunker
	embedder   embedding.Embedder
	summarizer domain.Summarizer
	log        logr.Logger

	corpus *corpus.Storage

	mu       sync.RWMutex
	snap     *snapshot
	disposed bool
}

// New creates an empty session. embedder may be nil for purely lexical
// ranking; a nil summarizer falls back to the frequency summarizer.
func New(opts Options, chunker domain.Chunker, embedder embedding.Embedder, sum domain.Summarizer, log logr.Logger) *Session {
	if opts.TopK <= 0 {
		opts.TopK = index.DefaultTopK
	}
	if opts.CandidatePool < opts.TopK {
		opts.CandidatePool = 4 * opts.TopK
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 3
	}
	if sum == nil {
		sum = summarizer.NewFrequencySummarizer()
	}
	return &Session{
		opts:       opts,
		chunker:    chunker,
		embedder:   embedder,
		summarizer: sum,
		log:        log.WithName("session"),
		corpus:     corpus.NewStorage(),
	}
}

// Ingest merges docs into the corpus and rebuilds the index over the union.
// A document whose ID is already present replaces the stored version.
// Ingesting nothing into an empty session still produces an (empty) index.
func (s *Session) Ingest(ctx context.Context, docs []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	s.corpus.Upsert(docs)
	s.rebuild(ctx)
	return nil
}

// Remove drops documents by ID and rebuilds the index. It reports how many
// documents were actually removed.
func (s *Session) Remove(ctx context.Context, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, ErrDisposed
	}
	n := s.corpus.Remove(ids...)
	if n > 0 && s.snap != nil {
		s.rebuild(ctx)
	}
	return n, nil
}

// Reset clears the corpus and discards the index.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	s.corpus.Clear()
	s.snap = nil
	s.log.Info("corpus reset")
	return nil
}

// Dispose releases the corpus and index. The session is unusable afterwards.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.corpus.Clear()
	s.snap = nil
	s.disposed = true
}

// Documents returns the ingested documents in ingestion order.
func (s *Session) Documents() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return nil, ErrDisposed
	}
	return s.corpus.Documents(), nil
}

func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Documents: s.corpus.Len()}
	if s.embedder != nil {
		st.Embedder = s.embedder.Name()
	}
	if s.snap != nil {
		st.Indexed = true
		st.Chunks = s.snap.index.Len()
		st.Terms = s.snap.index.Terms()
		st.Embedded = s.snap.embeddings != nil
	}
	return st
}

// Query ranks indexed chunks against text and summarizes the best ones.
// A non-positive k uses the configured TopK.
func (s *Session) Query(ctx context.Context, text string, k int) (Answer, error) {
	s.mu.RLock()
	snap, disposed := s.snap, s.disposed
	s.mu.RUnlock()
	if disposed {
		return Answer{}, ErrDisposed
	}
	if snap == nil {
		return Answer{}, ErrNoIndex
	}
	if k <= 0 {
		k = s.opts.TopK
	}

	var hits []domain.ScoredResult
	if snap.embeddings == nil {
		hits = snap.index.Search(text, k)
	} else {
		candidates := snap.index.Search(text, max(s.opts.CandidatePool, k))
		for i := range candidates {
			candidates[i].Embedding = snap.embeddings[candidates[i].Chunk.ID]
		}
		hits = mmr.Select(candidates, k, s.opts.MMRLambda)
	}
	s.log.V(1).Info("query", "terms", len(strings.Fields(text)), "hits", len(hits))

	return Answer{Text: s.answer(hits), Hits: hits}, nil
}

func (s *Session) answer(hits []domain.ScoredResult) string {
	if len(hits) == 0 {
		return NoMatchAnswer
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	summary, err := s.summarizer.Summarize(strings.Join(texts, "\n\n"), s.opts.SummarySentences)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			s.log.Error(err, "summarizing hits")
		}
		return strings.TrimSpace(hits[0].Chunk.Text)
	}
	return summary
}

// rebuild must be called with mu held for writing.
func (s *Session) rebuild(ctx context.Context) {
	docs := s.corpus.Documents()
	ix := index.Build(docs, s.chunker)
	s.snap = &snapshot{index: ix, embeddings: s.embed(ctx, ix.Chunks())}
	s.log.Info("index rebuilt", "documents", len(docs), "chunks", ix.Len(), "terms", ix.Terms())
}

// embed returns nil when no embedder is configured or any chunk fails, which
// leaves ranking purely lexical.
func (s *Session) embed(ctx context.Context, chunks []domain.Chunk) map[string][]float64 {
	if s.embedder == nil || len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		s.log.Error(err, "preparing embedder, ranking stays lexical", "embedder", s.embedder.Name())
		return nil
	}
	out := make(map[string][]float64, len(chunks))
	for _, ch := range chunks {
		vec, err := s.embedder.Embed(ctx, ch.Text)
		if err != nil {
			s.log.Error(err, "embedding chunk, ranking stays lexical", "embedder", s.embedder.Name(), "chunk", ch.ID)
			return nil
		}
		out[ch.ID] = vec
	}
	return out
}
