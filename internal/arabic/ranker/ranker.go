// Package ranker scores texts against a query and orders records by
// relevance.
package ranker

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
)

const (
	phraseScore     = 100
	leadingBonus    = 50
	tokenScore      = 10
	wholeWordBonus  = 20
	prefixWordScore = 5
	minPrefixRunes  = 3
)

// Scored pairs a record with its relevance score.
type Scored[R any] struct {
	Record R   `json:"record"`
	Score  int `json:"score"`
}

// Scorer holds a normalized query and its tokens. It is immutable and safe
// for concurrent use.
type Scorer struct {
	query  string
	tokens []string
}

// NewScorer prepares query for scoring.
func NewScorer(query string) *Scorer {
	q := normalize.Normalize(query)
	return &Scorer{query: q, tokens: normalize.Tokens(q)}
}

// Query returns the normalized query.
func (s *Scorer) Query() string {
	return s.query
}

// Tokens returns the query tokens that contribute per-token points.
func (s *Scorer) Tokens() []string {
	return s.tokens
}

// Empty reports whether the query normalizes to nothing.
func (s *Scorer) Empty() bool {
	return s.query == ""
}

// Score returns the relevance of text. Zero means no match.
func (s *Scorer) Score(text string) int {
	if s.query == "" {
		return 0
	}
	return s.ScoreNormalized(normalize.Normalize(text))
}

// ScoreNormalized scores text that has already been normalized.
func (s *Scorer) ScoreNormalized(text string) int {
	if s.query == "" || text == "" {
		return 0
	}
	score := 0
	if i := strings.Index(text, s.query); i >= 0 {
		score += phraseScore
		if i == 0 {
			score += leadingBonus
		}
	}
	for _, tok := range s.tokens {
		if !strings.Contains(text, tok) {
			continue
		}
		score += tokenScore
		if containsWord(text, tok) {
			score += wholeWordBonus
		}
	}
	if score == 0 && len(s.tokens) == 1 && utf8.RuneCountInString(s.tokens[0]) >= minPrefixRunes {
		for _, word := range strings.Fields(text) {
			if strings.HasPrefix(word, s.tokens[0]) {
				score += prefixWordScore
			}
		}
	}
	return score
}

// Score is a one-off convenience around NewScorer.
func Score(text, query string) int {
	return NewScorer(query).Score(text)
}

// Rank scores every record and returns those with a positive score, best
// first. Records with equal scores keep their input order.
func Rank[R any](records []R, query string, textOf func(R) string) []Scored[R] {
	s := NewScorer(query)
	out := make([]Scored[R], 0)
	if s.Empty() {
		return out
	}
	for _, r := range records {
		if score := s.Score(textOf(r)); score > 0 {
			out = append(out, Scored[R]{Record: r, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// RankStrings ranks plain strings.
func RankStrings(texts []string, query string) []Scored[string] {
	return Rank(texts, query, func(s string) string { return s })
}

// containsWord reports whether word occurs in text bounded on both sides by
// the text edges or by runes that are neither letters nor digits.
func containsWord(text, word string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if isBoundary(text, start, end) {
			return true
		}
		_, w := utf8.DecodeRuneInString(text[start:])
		offset = start + w
	}
	return false
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
