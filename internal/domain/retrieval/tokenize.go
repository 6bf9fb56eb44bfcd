package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen drops single-character tokens ("a", "5", "x").
const minTokenLen = 2

// Tokenize lowercases text, splits it on non-word boundaries and drops
// stop words and one-character tokens. Duplicates are kept: term frequency
// is counted from the result.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) < minTokenLen || IsStopword(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// termCounts tallies raw term frequencies.
func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
