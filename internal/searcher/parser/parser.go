// Package parser turns a raw search string into a QueryPlan: the free text
// to match, its normalized form and tokens, and any tag: filters.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
)

const tagPrefix = "tag:"

type QueryPlan struct {
	RawQuery   string   `json:"raw_query"`
	Text       string   `json:"text"`
	Normalized string   `json:"normalized"`
	Tokens     []string `json:"tokens"`
	Words      []string `json:"words"`
	Tags       []string `json:"tags,omitempty"`
}

// Empty reports whether the plan has nothing to search for.
func (p *QueryPlan) Empty() bool {
	return p.Normalized == ""
}

// Parse builds a plan from query. Fields of the form tag:value become
// filters (matched against normalized quote tags) and are removed from the
// searched text.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		RawQuery: query,
		Tokens:   make([]string, 0),
		Words:    make([]string, 0),
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	words := strings.Fields(query)
	text := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > len(tagPrefix) && strings.EqualFold(w[:len(tagPrefix)], tagPrefix) {
			if tag := normalize.Normalize(w[len(tagPrefix):]); tag != "" {
				plan.Tags = append(plan.Tags, tag)
			}
			continue
		}
		text = append(text, w)
	}
	plan.Text = strings.Join(text, " ")
	plan.Normalized = normalize.Normalize(plan.Text)
	if plan.Normalized == "" {
		return plan
	}
	plan.Tokens = normalize.Tokens(plan.Normalized)
	if words := normalize.Words(plan.Normalized); words != nil {
		plan.Words = words
	}
	return plan
}

// MatchesTags reports whether a quote with the given tags passes every tag
// filter of the plan.
func (p *QueryPlan) MatchesTags(tags []string) bool {
	for _, want := range p.Tags {
		found := false
		for _, have := range tags {
			if normalize.Normalize(have) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
