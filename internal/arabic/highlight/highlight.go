// Package highlight marks query matches in original, un-normalized text.
//
// Matches are found in normalized space and projected back through the
// position map built by normalize.NormalizeMapped, so stripped diacritics
// and tatweel inside or right after a match stay in the highlighted part.
package highlight

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
)

// Span is a half-open byte range [Start, End) of the original text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Segment is one piece of the original text. Concatenating the Text of all
// segments returned by one call gives back the original text.
type Segment struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"is_highlighted"`
}

// Mode selects how a query is turned into highlighted spans.
type Mode string

const (
	// ModePhrase highlights occurrences of the whole query.
	ModePhrase Mode = "phrase"
	// ModeTerms highlights every Arabic word of the query independently.
	ModeTerms Mode = "terms"
)

// ParseMode maps a mode name to a Mode. Unknown or empty names fall back to
// ModePhrase.
func ParseMode(name string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(name))) == ModeTerms {
		return ModeTerms
	}
	return ModePhrase
}

// Highlight marks every occurrence of query as a phrase.
func Highlight(text, query string) []Segment {
	return Partition(text, Spans(text, query))
}

// HighlightTerms marks every occurrence of each Arabic word of query.
func HighlightTerms(text, query string) []Segment {
	return Partition(text, TermSpans(text, query))
}

// Apply highlights text in the given mode.
func Apply(mode Mode, text, query string) []Segment {
	if mode == ModeTerms {
		return HighlightTerms(text, query)
	}
	return Highlight(text, query)
}

// Spans returns the merged original-text spans of all phrase matches.
func Spans(text, query string) []Span {
	if text == "" || strings.TrimSpace(query) == "" {
		return nil
	}
	q := normalize.Normalize(query)
	if q == "" {
		return nil
	}
	m := normalize.NormalizeMapped(text)
	if !strings.Contains(m.Text, q) {
		return nil
	}
	return Merge(find(m, q, nil))
}

// TermSpans returns the merged original-text spans of all word matches.
func TermSpans(text, query string) []Span {
	if text == "" || strings.TrimSpace(query) == "" {
		return nil
	}
	words := normalize.Words(normalize.Normalize(query))
	if len(words) == 0 {
		return nil
	}
	m := normalize.NormalizeMapped(text)
	var spans []Span
	for _, w := range words {
		spans = find(m, w, spans)
	}
	return Merge(spans)
}

// find appends the projected spans of all non-overlapping occurrences of
// needle in m.Text.
func find(m normalize.Mapped, needle string, spans []Span) []Span {
	if needle == "" {
		return spans
	}
	for offset := 0; offset < len(m.Text); {
		i := strings.Index(m.Text[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(needle)
		if from, to, ok := m.Source(start, end); ok {
			spans = append(spans, Span{Start: from, End: to})
		}
		offset = end
	}
	return spans
}

// Merge sorts spans and joins those that overlap or touch. Empty spans are
// dropped. The input slice is reordered in place.
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	merged := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.End <= s.Start {
			continue
		}
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Partition splits text into alternating plain and highlighted segments.
// spans must be sorted, non-overlapping and within text; spans that are not
// are clipped or skipped.
func Partition(text string, spans []Span) []Segment {
	if len(spans) == 0 {
		return []Segment{{Text: text}}
	}
	segments := make([]Segment, 0, 2*len(spans)+1)
	cursor := 0
	for _, s := range spans {
		if s.Start < cursor {
			s.Start = cursor
		}
		if s.End > len(text) {
			s.End = len(text)
		}
		if s.End <= s.Start {
			continue
		}
		if s.Start > cursor {
			segments = append(segments, Segment{Text: text[cursor:s.Start]})
		}
		if n := len(segments); n > 0 && segments[n-1].Highlighted {
			segments[n-1].Text += text[s.Start:s.End]
		} else {
			segments = append(segments, Segment{Text: text[s.Start:s.End], Highlighted: true})
		}
		cursor = s.End
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}
	if len(segments) == 0 {
		return []Segment{{Text: text}}
	}
	return segments
}
