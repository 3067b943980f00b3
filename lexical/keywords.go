package lexical

import "regexp"

// Default keyword lists. The service these were tuned against serves mostly
// Korean text with a long tail of English, so both languages are covered.
// Keywords are matched against normalized lower-case tokens (see tokenize.go).

var defaultSevereHarmKeywords = []string{
	// english
	"kill", "murder", "rape", "terrorist", "behead",
	// korean
	"죽어", "죽여", "죽일", "자살해", "살인",
}

var defaultModerateHarmKeywords = []string{
	// english
	"hate", "stupid", "idiot", "loser", "trash", "disgusting",
	// korean
	"바보", "멍청이", "꺼져", "쓰레기", "한심", "역겨워",
}

var defaultHighSpamKeywords = []string{
	// korean
	"무료", "클릭", "이벤트", "당첨", "대출", "도박", "카지노", "수익보장",
	// english
	"casino", "viagra", "lottery", "jackpot", "winner",
}

var defaultMediumSpamKeywords = []string{
	// korean
	"할인", "쿠폰", "광고", "홍보", "특가", "문의",
	// english
	"free", "discount", "promo", "offer", "bonus", "sale",
}

// Obfuscation tricks: spacing out or leet-substituting letters of severe
// keywords to dodge the plain token match. Each regexp match contributes its
// weight to the harm boost.
type obfuscationPattern struct {
	re     *regexp.Regexp
	weight float64
}

var defaultObfuscationPatterns = []obfuscationPattern{
	{regexp.MustCompile(`(?i)\bk\s+i\s+l\s+l\b`), 10},
	{regexp.MustCompile(`(?i)\bk[1!|][l1|][l1|]\b`), 10},
	{regexp.MustCompile(`(?i)\bmurd[3e]r[3e]r?\b`), 10},
	{regexp.MustCompile(`죽\s+어|죽\s+여`), 10},
}

// based on the URL regex from stackoverflow.com/a/48769624, no trailing period
var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

// covers common Korean landline/mobile formats plus generic separator styles
var phoneRegex = regexp.MustCompile(`0\d{1,2}[-.\s]?\d{3,4}[-.\s]?\d{4}`)
