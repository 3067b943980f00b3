package segment

import (
	"strings"
	"unicode/utf8"
)

// Default minimum sentence length, in runes. Fragments shorter than this are
// almost always punctuation noise or interjections and just add index churn.
const DefaultMinLength = 10

// A single sentence unit extracted from a larger text.
type Sentence struct {
	Text   string `json:"text"`
	Index  int    `json:"index"`
	Length int    `json:"length"`
}

// Segmenter splits free-form text into sentence units. The split is fully
// deterministic: no locale lookup, no randomness, so identical input always
// yields byte-identical output.
type Segmenter struct {
	// Minimum sentence length in runes; shorter fragments are dropped.
	MinLength int
}

func NewSegmenter() *Segmenter {
	return &Segmenter{MinLength: DefaultMinLength}
}

// terminator runes ending a sentence. Includes the fullwidth variants common
// in CJK text.
func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？':
		return true
	}
	return false
}

// Segment splits text into ordered sentence units, dropping fragments shorter
// than MinLength runes. Index is the position within the returned list.
func (s *Segmenter) Segment(text string) []Sentence {
	minLen := s.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}

	out := []Sentence{}
	var b strings.Builder
	flush := func() {
		frag := strings.TrimSpace(b.String())
		b.Reset()
		n := utf8.RuneCountInString(frag)
		if n < minLen {
			return
		}
		out = append(out, Sentence{
			Text:   frag,
			Index:  len(out),
			Length: n,
		})
	}

	for _, r := range text {
		if isTerminator(r) {
			// keep the terminator with the sentence, except bare newlines
			if r != '\n' {
				b.WriteRune(r)
			}
			flush()
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return out
}
