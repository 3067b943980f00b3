// Package lexical implements the deterministic keyword/pattern scorer. It is
// the cheapest signal in the pipeline and runs before any network call.
package lexical

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	severeKeywordBoost   = 25.0
	moderateKeywordBoost = 15.0
	maxHarmBoost         = 50.0

	highSpamKeywordScore   = 20.0
	mediumSpamKeywordScore = 5.0
	maxSpamScore           = 100.0

	// texts shorter than this (in runes) get their low spam scores dampened
	shortTextRunes    = 20
	shortTextDampen   = 0.5
	shortTextScoreCap = 50.0

	// repeated-substring scan parameters
	repeatMinCount   = 5
	repeatBonusCount = 15
	maxRepeatRunes   = 1000
)

var repeatWindowSizes = []int{5, 10, 15}

// Scorer holds the keyword lists and patterns for deterministic scoring. The
// zero value is not usable; construct with NewScorer. A Scorer is read-only
// after construction and safe for concurrent use.
type Scorer struct {
	severe      []string
	moderate    []string
	spamHigh    []string
	spamMedium  []string
	obfuscation []obfuscationPattern
}

func NewScorer() *Scorer {
	return &Scorer{
		severe:      defaultSevereHarmKeywords,
		moderate:    defaultModerateHarmKeywords,
		spamHigh:    defaultHighSpamKeywords,
		spamMedium:  defaultMediumSpamKeywords,
		obfuscation: defaultObfuscationPatterns,
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// counts distinct keywords hit. ASCII keywords match whole tokens only; CJK
// keywords also match as substrings, since Korean agglutinates particles onto
// the word ("당첨입니다" still hits "당첨").
func countKeywordHits(folded string, toks map[string]bool, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if toks[kw] {
			hits++
			continue
		}
		if !isASCII(kw) && strings.Contains(folded, kw) {
			hits++
		}
	}
	return hits
}

// HarmBoost returns the deterministic harmfulness boost in [0,50]: severe
// keyword hits add 25 each, moderate hits add 15, obfuscation pattern matches
// add their per-pattern weight.
func (s *Scorer) HarmBoost(text string) float64 {
	folded := foldText(text)
	toks := tokenSet(folded)

	boost := severeKeywordBoost * float64(countKeywordHits(folded, toks, s.severe))
	boost += moderateKeywordBoost * float64(countKeywordHits(folded, toks, s.moderate))
	for _, p := range s.obfuscation {
		boost += p.weight * float64(len(p.re.FindAllStringIndex(text, -1)))
	}
	if boost > maxHarmBoost {
		boost = maxHarmBoost
	}
	return boost
}

// SpamScore returns the deterministic spam sub-score in [0,100], combining
// keyword hits, URL/phone patterns, character-shape heuristics, and repeated
// substring detection.
func (s *Scorer) SpamScore(text string) float64 {
	trimmed := strings.TrimSpace(text)
	folded := foldText(trimmed)
	toks := tokenSet(folded)

	score := highSpamKeywordScore * float64(countKeywordHits(folded, toks, s.spamHigh))
	score += mediumSpamKeywordScore * float64(countKeywordHits(folded, toks, s.spamMedium))

	patterns := len(urlRegex.FindAllString(trimmed, -1)) + len(phoneRegex.FindAllString(trimmed, -1))
	switch {
	case patterns >= 3:
		score += 40
	case patterns == 2:
		score += 30
	case patterns == 1:
		score += 20
	}

	if specialCharRatio(trimmed) > 0.15 {
		score += 15
	}
	if uppercaseRatio(trimmed) > 0.5 {
		score += 10
	}
	score += repeatScore(trimmed)

	if score > maxSpamScore {
		score = maxSpamScore
	}
	if utf8.RuneCountInString(trimmed) < shortTextRunes && score < shortTextScoreCap {
		score *= shortTextDampen
	}
	return score
}

func specialCharRatio(text string) float64 {
	total, special := 0, 0
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

// ratio of upper-case to all cased letters; returns 0 when the text has too
// few cased letters to be meaningful.
func uppercaseRatio(text string) float64 {
	upper, lower := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		}
	}
	if upper+lower < 4 {
		return 0
	}
	return float64(upper) / float64(upper+lower)
}

// repeatScore scans 5/10/15-rune sliding windows for consecutively repeated
// patterns. A pattern repeating n>=5 times contributes 50 + 6*(n-5), with a
// +20 bonus at n>=15. The caller caps the overall spam score.
func repeatScore(text string) float64 {
	rs := []rune(text)
	if len(rs) > maxRepeatRunes {
		rs = rs[:maxRepeatRunes]
	}

	best := 0
	for _, w := range repeatWindowSizes {
		if len(rs) < w*2 {
			continue
		}
		for i := 0; i+2*w <= len(rs); i++ {
			pat := string(rs[i : i+w])
			count := 1
			for j := i + w; j+w <= len(rs) && string(rs[j:j+w]) == pat; j += w {
				count++
			}
			if count > best {
				best = count
			}
		}
	}
	if best < repeatMinCount {
		return 0
	}
	score := 50 + 6*float64(best-repeatMinCount)
	if best >= repeatBonusCount {
		score += 20
	}
	return score
}
