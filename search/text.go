package search

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {}, "was": {},
	"to": {}, "of": {}, "and": {}, "in": {}, "that": {}, "have": {}, "it": {},
	"for": {}, "not": {}, "on": {}, "with": {}, "as": {}, "you": {}, "do": {},
	"at": {}, "this": {}, "but": {}, "by": {}, "from": {}, "about": {},
	"what": {}, "new": {}, "how": {},
}

// keywords lowercases text, splits it on anything that is not a letter or
// digit, and drops stop words.
func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			out = append(out, f)
		}
	}
	return out
}

// containsAllQueryWords reports whether every query keyword occurs in document.
// A query made only of stop words never matches.
func containsAllQueryWords(document, query string) bool {
	want := keywords(query)
	if len(want) == 0 {
		return false
	}

	have := make(map[string]struct{})
	for _, w := range keywords(document) {
		have[w] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
