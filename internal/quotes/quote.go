// Package quotes holds the in-memory quote corpus: the Quote type, a
// sharded Store, validation, and the file and PostgreSQL sources it is
// loaded from.
package quotes

import "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"

// Quote is one searchable quotation.
type Quote struct {
	ID     string   `json:"id" yaml:"id"`
	Text   string   `json:"text" yaml:"text"`
	Author string   `json:"author,omitempty" yaml:"author"`
	Source string   `json:"source,omitempty" yaml:"source"`
	Tags   []string `json:"tags,omitempty" yaml:"tags"`
}

// Entry is a stored quote with its normalized text and load position.
// Entries are never modified after they are added to a Store.
type Entry struct {
	Quote
	Normalized string
	Ordinal    int
}

func newEntry(q Quote, ordinal int) *Entry {
	return &Entry{
		Quote:      q,
		Normalized: normalize.Normalize(q.Text),
		Ordinal:    ordinal,
	}
}
