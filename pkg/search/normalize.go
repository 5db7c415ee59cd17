package search

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms text before comparison.
type Normalizer func(string) string

// Katakana U+30A1 (ァ) through U+30F6 (ヶ) sit exactly 0x60 above their
// hiragana counterparts.
const (
	katakanaFirst  = 'ァ'
	katakanaLast   = 'ヶ'
	hiraganaOffset = 0x60
)

var katakanaToHiragana = runes.Map(func(r rune) rune {
	if r >= katakanaFirst && r <= katakanaLast {
		return r - hiraganaOffset
	}
	return r
})

// NormalizeKana folds width, case and kana script so that visually or
// phonetically equivalent input compares equal:
// "ﾔﾏﾀﾞ", "ヤマダ" and "やまだ" all become "やまだ", "０９０" becomes "090".
func NormalizeKana(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	result, _, _ := transform.String(katakanaToHiragana, s)
	return strings.TrimSpace(result)
}

// NormalizeLowercase applies NFKC and lowercasing but keeps katakana.
func NormalizeLowercase(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFKC.String(s)))
}

// NormalizeNone returns the text unchanged.
func NormalizeNone(s string) string {
	return s
}

// Normalize is the canonical form used by Match.
func Normalize(s string) string {
	return NormalizeKana(s)
}

// GetNormalizer returns the normalizer for the given mode.
// Default is kana.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "kana":
		return NormalizeKana
	case "lowercase":
		return NormalizeLowercase
	case "none":
		return NormalizeNone
	default:
		return NormalizeKana
	}
}
