// Package tokenizer normalises text for the full-text index: it
// lower-cases, splits on non-alphanumeric runes, drops stop words and
// strips a handful of common suffixes.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "had": {},
	"has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"nor": {}, "not": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"so": {}, "that": {}, "the": {}, "their": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "what": {}, "which": {}, "will": {},
	"with": {}, "you": {}, "your": {},
}

// Terms breaks text into normalised index terms. Duplicates are kept:
// callers that want frequencies count them.
func Terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		terms = append(terms, stem(word))
	}
	return terms
}

var suffixRules = []struct {
	suffix  string
	replace string
	minStem int
}{
	{"ications", "ic", 3},
	{"ication", "ic", 3},
	{"izations", "ize", 3},
	{"ization", "ize", 3},
	{"ingly", "", 4},
	{"fully", "ful", 3},
	{"ments", "ment", 3},
	{"ness", "", 3},
	{"ions", "ion", 3},
	{"ing", "", 4},
	{"ies", "y", 2},
	{"ers", "er", 3},
	{"ed", "", 4},
	{"ly", "", 4},
	{"es", "e", 3},
	{"s", "", 3},
}

// stem strips one matching suffix. Deliberately lighter than a Porter
// stemmer; the goal is "topics" matching "topic", not linguistics.
func stem(word string) string {
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		stemmed := word[:len(word)-len(rule.suffix)] + rule.replace
		if len(stemmed) >= rule.minStem {
			return stemmed
		}
	}
	return word
}
