// Package matcher decides whether a query occurs in a text after both have
// been normalized, with an optional fuzzy fallback for multi-word and prefix
// queries.
package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
)

// minPrefixRunes is the shortest single token that may match a word prefix.
const minPrefixRunes = 3

// Matcher holds a normalized query so that it can be tested against many
// texts without normalizing it again. A Matcher is immutable and safe for
// concurrent use.
type Matcher struct {
	query  string
	tokens []string
	fuzzy  bool
}

// New prepares query for matching.
func New(query string, fuzzy bool) *Matcher {
	q := normalize.Normalize(query)
	return &Matcher{
		query:  q,
		tokens: normalize.Tokens(q),
		fuzzy:  fuzzy,
	}
}

// Query returns the normalized query.
func (m *Matcher) Query() string {
	return m.query
}

// Match reports whether text contains the query.
func (m *Matcher) Match(text string) bool {
	if m.query == "" {
		return false
	}
	return m.MatchNormalized(normalize.Normalize(text))
}

// MatchNormalized is Match for text that has already been normalized.
func (m *Matcher) MatchNormalized(text string) bool {
	if text == "" || m.query == "" {
		return false
	}
	if strings.Contains(text, m.query) {
		return true
	}
	if !m.fuzzy || utf8.RuneCountInString(m.query) <= 2 {
		return false
	}
	switch {
	case len(m.tokens) > 1:
		for _, tok := range m.tokens {
			if !strings.Contains(text, tok) {
				return false
			}
		}
		return true
	case len(m.tokens) == 1 && utf8.RuneCountInString(m.tokens[0]) >= minPrefixRunes:
		for _, word := range strings.Fields(text) {
			if strings.HasPrefix(word, m.tokens[0]) {
				return true
			}
		}
	}
	return false
}

// Contains reports whether query occurs in text. With fuzzy set, a query
// whose words all occur in text (in any order), or a single word of three
// or more letters that starts a word of text, also matches.
func Contains(text, query string, fuzzy bool) bool {
	if text == "" || query == "" {
		return false
	}
	return New(query, fuzzy).Match(text)
}

// ContainsFuzzy is Contains with fuzzy matching enabled.
func ContainsFuzzy(text, query string) bool {
	return Contains(text, query, true)
}

// CountOccurrences counts non-overlapping occurrences of query in text,
// scanning left to right over the normalized forms.
func CountOccurrences(text, query string) int {
	q := normalize.Normalize(query)
	if q == "" {
		return 0
	}
	t := normalize.Normalize(text)
	if t == "" {
		return 0
	}
	return strings.Count(t, q)
}
