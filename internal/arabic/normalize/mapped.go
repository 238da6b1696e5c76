package normalize

import (
	"unicode"
	"unicode/utf8"
)

// Mapped is a normalized string that remembers, for every rune it contains,
// the byte range of the original text that produced it.
//
// Deleted marks that directly follow a kept rune belong to that rune's
// range, so a projected match never cuts a letter off from its vowels. A
// collapsed space owns the whole whitespace run it replaced.
type Mapped struct {
	Text string

	byteToRune []int
	srcStart   []int
	srcEnd     []int
}

// NormalizeMapped normalizes text exactly like Normalize and records the
// position map needed to project normalized ranges back onto text.
func NormalizeMapped(text string) Mapped {
	m := Mapped{}
	if text == "" {
		return m
	}
	buf := make([]byte, 0, len(text))
	pending := false
	spaceStart, spaceEnd := 0, 0

	emit := func(r rune, from, to int) {
		idx := len(m.srcStart)
		before := len(buf)
		buf = utf8.AppendRune(buf, r)
		for i := before; i < len(buf); i++ {
			m.byteToRune = append(m.byteToRune, idx)
		}
		m.srcStart = append(m.srcStart, from)
		m.srcEnd = append(m.srcEnd, to)
	}

	for i, r := range text {
		_, w := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			if !pending {
				pending = true
				spaceStart = i
			}
			spaceEnd = i + w
		case IsDiacritic(r):
			if !pending && len(m.srcEnd) > 0 {
				m.srcEnd[len(m.srcEnd)-1] = i + w
			}
		default:
			if pending && len(buf) > 0 {
				emit(' ', spaceStart, spaceEnd)
			}
			pending = false
			emit(canonical(r), i, i+w)
		}
	}
	m.Text = string(buf)
	return m
}

// Source projects the half-open normalized byte range [start, end) onto the
// original text. ok is false for empty or out-of-range input.
func (m Mapped) Source(start, end int) (from, to int, ok bool) {
	if start < 0 || end > len(m.Text) || start >= end {
		return 0, 0, false
	}
	return m.srcStart[m.byteToRune[start]], m.srcEnd[m.byteToRune[end-1]], true
}
