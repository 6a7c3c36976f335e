// Package segment splits raw documents into sentence-like units for
// embedding.
package segment

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyDocument is returned when the document is empty after trimming.
var ErrEmptyDocument = errors.New("document content is empty")

// Segment splits a document into an ordered sequence of sentences. A
// sentence boundary is terminal punctuation (. ! ?) followed by
// whitespace, except after a single-capital-letter abbreviation ("A.")
// or a letter-dot-letter-dot pattern ("U.S."). This is a best-effort
// heuristic, not a grammatical splitter: it still mis-splits some
// abbreviations and merges run-ons, and that is accepted behavior.
// Output sentences are trimmed, empty ones dropped, order preserved.
func Segment(document string) ([]string, error) {
	trimmed := strings.TrimSpace(document)
	if trimmed == "" {
		return nil, ErrEmptyDocument
	}

	runes := []rune(trimmed)
	var sentences []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && looksLikeAbbreviation(runes, i) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences, nil
}

// looksLikeAbbreviation reports whether the period at runes[dot] ends an
// abbreviation rather than a sentence.
func looksLikeAbbreviation(runes []rune, dot int) bool {
	// Single capital letter preceded by start or a non-letter: "A. Smith".
	if dot >= 1 && unicode.IsUpper(runes[dot-1]) {
		if dot == 1 || !unicode.IsLetter(runes[dot-2]) {
			return true
		}
	}
	// Letter-dot-letter-dot: the second period of "U.S.".
	if dot >= 3 && unicode.IsLetter(runes[dot-1]) && runes[dot-2] == '.' && unicode.IsLetter(runes[dot-3]) {
		return true
	}
	return false
}
