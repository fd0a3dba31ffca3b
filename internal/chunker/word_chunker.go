package chunker

import (
	"strconv"
	"strings"

	"scadarag/internal/domain"
)

const (
	DefaultMaxWords     = 1000
	DefaultOverlapWords = 150
)

// pageBreak separates pages in text extracted from PDFs.
const pageBreak = "\f"

// WordChunker slides a fixed window of words over a document, stepping by
// maxWords-overlapWords each time.
type WordChunker struct {
	maxWords     int
	overlapWords int
}

// NewWordChunker creates a word window chunker. Non-positive sizes fall back
// to the defaults and an overlap that would stall the window is reduced.
func NewWordChunker(maxWords, overlapWords int) *WordChunker {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= maxWords {
		overlapWords = maxWords / 4
	}
	return &WordChunker{maxWords: maxWords, overlapWords: overlapWords}
}

// Step returns how many words the window advances per chunk.
func (c *WordChunker) Step() int { return c.maxWords - c.overlapWords }

type word struct {
	text string
	page int
}

func (c *WordChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	words, paged := splitWords(document.Text)
	if len(words) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	step := c.Step()
	for start, idx := 0, 0; start < len(words); start, idx = start+step, idx+1 {
		end := min(start+c.maxWords, len(words))
		parts := make([]string, 0, end-start)
		for _, w := range words[start:end] {
			parts = append(parts, w.text)
		}
		chunk := domain.Chunk{
			ID:         document.ID + ":" + strconv.Itoa(idx),
			DocumentID: document.ID,
			Title:      document.Title,
			Text:       strings.Join(parts, " "),
			Index:      idx,
		}
		if paged {
			chunk.Page = words[start].page
		}
		chunks = append(chunks, chunk)
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}

// splitWords returns the whitespace separated words of text with the 1-based
// page each one sits on. paged reports whether text had more than one page.
func splitWords(text string) (words []word, paged bool) {
	pages := strings.Split(text, pageBreak)
	for i, p := range pages {
		for _, f := range strings.Fields(p) {
			words = append(words, word{text: f, page: i + 1})
		}
	}
	return words, len(pages) > 1
}
