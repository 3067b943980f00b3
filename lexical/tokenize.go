package lexical

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Lower-cases and unicode-normalizes text, replacing punctuation with spaces.
// Combining marks are folded away so that decomposed Hangul or accented Latin
// text matches the composed keyword form.
func foldText(text string) string {
	// the transform chain is stateful and not safe for concurrent reuse, so
	// it is built per call
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		folded = bare
	}
	return folded
}

// Splits free-form text into folded tokens for fast matching against keyword
// lists.
func tokenizeText(text string) []string {
	return strings.Fields(foldText(text))
}

// Set of distinct tokens in the text.
func tokenSet(folded string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(folded) {
		set[tok] = true
	}
	return set
}
