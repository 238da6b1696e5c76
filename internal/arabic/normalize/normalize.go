// Package normalize canonicalizes Arabic (and mixed-script) text into the
// comparison form shared by matching, highlighting and scoring.
//
// Pipeline order:
//  1. lowercase (rune for rune, Arabic is caseless)
//  2. strip tashkeel, Quranic annotation marks and tatweel
//  3. alif variants (hamza above/below, madda, wasla) to bare alif
//  4. alif maksura and yaa with hamza to yaa
//  5. taa marbuta to haa
//  6. waw with hamza to waw
//  7. collapse whitespace runs to a single space and trim
//
// Every rule is either a one-rune substitution or a deletion, so the
// normalized form never has more runes than its input and applying the
// pipeline twice gives the same result as applying it once.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var diacritics = runes.In(&unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0610, Hi: 0x061A, Stride: 1}, // Quranic honorifics and small marks
		{Lo: 0x0640, Hi: 0x0640, Stride: 1}, // tatweel
		{Lo: 0x064B, Hi: 0x065F, Stride: 1}, // harakat, tanween, shadda, sukun
		{Lo: 0x0670, Hi: 0x0670, Stride: 1}, // superscript alif
		{Lo: 0x06D6, Hi: 0x06ED, Stride: 1}, // Quranic annotation marks
	},
})

var letterFolds = map[rune]rune{
	'\u0623': '\u0627', // alif with hamza above
	'\u0625': '\u0627', // alif with hamza below
	'\u0622': '\u0627', // alif with madda
	'\u0671': '\u0627', // alif wasla
	'\u0649': '\u064A', // alif maksura
	'\u0626': '\u064A', // yaa with hamza
	'\u0629': '\u0647', // taa marbuta
	'\u0624': '\u0648', // waw with hamza
}

// canonical lowercases r and folds its letter variant. Diacritics are
// handled separately by the deletion set.
func canonical(r rune) rune {
	r = unicode.ToLower(r)
	if f, ok := letterFolds[r]; ok {
		return f
	}
	return r
}

// IsDiacritic reports whether r is removed by normalization.
func IsDiacritic(r rune) bool {
	return diacritics.Contains(r)
}

// letters applies stages 1–6. Whitespace collapsing runs afterwards because
// it depends on neighbouring runes.
func letters() transform.Transformer {
	return transform.Chain(runes.Remove(diacritics), runes.Map(canonical))
}

// Normalize returns the canonical comparison form of text.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(letters(), text)
	if err != nil {
		return NormalizeMapped(text).Text
	}
	return collapseSpaces(folded)
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits normalized text on spaces and keeps tokens longer than one
// rune.
func Tokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// Words extracts maximal runs of Arabic letters of at least two runes,
// without duplicates, in order of first appearance.
func Words(normalized string) []string {
	var out []string
	seen := make(map[string]struct{})
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		w := normalized[start:end]
		start = -1
		if utf8.RuneCountInString(w) < 2 {
			return
		}
		if _, dup := seen[w]; dup {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	for i, r := range normalized {
		if IsArabicLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(normalized))
	return out
}

// IsArabicLetter reports whether r is a letter of the Arabic script.
func IsArabicLetter(r rune) bool {
	return unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r)
}

// HasArabic reports whether s contains at least one Arabic letter.
func HasArabic(s string) bool {
	for _, r := range s {
		if IsArabicLetter(r) {
			return true
		}
	}
	return false
}
