// Package engine implements the qualification and intent engine: a pure
// function of (message text, prior facts, history, intent) producing updated
// facts, dialogue phase, progress and a salesperson briefing. It performs no
// I/O and holds no state between calls.
package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks after NFD decomposition, so
// "não" and "nao" compare equal against the ASCII lexicons.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases s and removes diacritics. All lexicon matching runs over
// folded text; proper-noun captures run over the original text.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw text.
		folded = s
	}
	return strings.ToLower(folded)
}

// containsAny reports whether the folded text contains any of the given
// folded substrings.
func containsAny(folded string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(folded, t) {
			return true
		}
	}
	return false
}

// firstMatch returns the first lexicon term contained in folded text.
func firstMatch(folded string, terms []string) (string, bool) {
	for _, t := range terms {
		if strings.Contains(folded, t) {
			return t, true
		}
	}
	return "", false
}
