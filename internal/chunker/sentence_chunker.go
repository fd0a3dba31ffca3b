package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"scadarag/internal/domain"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// SentenceChunker groups whole sentences into chunks, repeating the last
// overlapSentences of one chunk at the start of the next.
type SentenceChunker struct {
	perChunk int
	overlap  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	overlapSentences = max(overlapSentences, 0)
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{perChunk: sentencesPerChunk, overlap: overlapSentences}
}

type sentence struct {
	text string
	page int
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences, paged := splitSentences(document.Text)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	step := c.perChunk - c.overlap
	for start, idx := 0, 0; start < len(sentences); start, idx = start+step, idx+1 {
		end := min(start+c.perChunk, len(sentences))
		parts := make([]string, 0, end-start)
		for _, s := range sentences[start:end] {
			parts = append(parts, s.text)
		}
		chunk := domain.Chunk{
			ID:         document.ID + ":" + strconv.Itoa(idx),
			DocumentID: document.ID,
			Title:      document.Title,
			Text:       strings.Join(parts, " "),
			Index:      idx,
		}
		if paged {
			chunk.Page = sentences[start].page
		}
		chunks = append(chunks, chunk)
		if end == len(sentences) {
			break
		}
	}
	return chunks, nil
}

// splitSentences cuts each page after runs of terminal punctuation. Text
// after the last terminator is kept as a sentence of its own, and no
// sentence crosses a page break.
func splitSentences(text string) (sentences []sentence, paged bool) {
	pages := strings.Split(text, pageBreak)
	for i, p := range pages {
		rest := p
		for _, loc := range sentenceEnd.FindAllStringIndex(p, -1) {
			cut := loc[1] - (len(p) - len(rest))
			sentences = appendSentence(sentences, rest[:cut], i+1)
			rest = rest[cut:]
		}
		sentences = appendSentence(sentences, rest, i+1)
	}
	return sentences, len(pages) > 1
}

func appendSentence(sentences []sentence, s string, page int) []sentence {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return sentences
	}
	return append(sentences, sentence{text: s, page: page})
}
