// Package tokenizer turns free text into the lexical terms used for indexing
// and querying.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accented letters kept as-is when they survive decomposition.
const keepAccented = "áéíóúüñ"

// Tokenize lowercases and decomposes text, drops combining marks, strips
// everything outside [a-z0-9] and the accented set and splits on whitespace.
// Stripping joins across punctuation, so "IEC-61850" is the single term
// "iec61850". The same input always yields the same terms.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(Normalize(text))
}

// Normalize returns the folded form of text that Tokenize splits.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune(keepAccented, r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, folded)
}

// Counts returns the term frequencies of text.
func Counts(text string) map[string]int {
	tf := make(map[string]int)
	for _, tok := range Tokenize(text) {
		tf[tok]++
	}
	return tf
}
