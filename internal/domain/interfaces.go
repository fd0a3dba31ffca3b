package domain

// Metadata carries optional facts about where a document came from.
type Metadata struct {
	Size   int64
	Origin string
}

// Document is a single uploaded or loaded source of plain text.
type Document struct {
	ID       string
	Title    string
	Text     string
	Metadata Metadata
}

// Chunk is a contiguous window of a document's words, the unit of retrieval.
// TF and Norm are filled in when the chunk is indexed.
type Chunk struct {
	ID         string
	DocumentID string
	Title      string
	Text       string
	Index      int
	Page       int
	TF         map[string]int
	Norm       float64
}

// ScoredResult is a chunk paired with its similarity to a query.
// Embedding is optional and only consulted by diversity re-ranking.
type ScoredResult struct {
	Chunk     Chunk
	Score     float64
	Embedding []float64
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
