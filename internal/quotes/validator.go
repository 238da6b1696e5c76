package quotes

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxIDLength     = 128
	maxAuthorLength = 256
	maxTags         = 32
	// DefaultMaxTextLength bounds quote text in runes when no limit is configured.
	DefaultMaxTextLength = 4000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	ID     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return fmt.Sprintf("quote %q: %s", e.ID, strings.Join(parts, "; "))
}

// Validate checks the required fields and length limits of q. A
// maxTextLength of zero or less means DefaultMaxTextLength.
func Validate(q Quote, maxTextLength int) error {
	if maxTextLength <= 0 {
		maxTextLength = DefaultMaxTextLength
	}
	errs := make(map[string]string)

	id := strings.TrimSpace(q.ID)
	switch {
	case id == "":
		errs["id"] = "id is required"
	case len(id) > maxIDLength:
		errs["id"] = fmt.Sprintf("id must be at most %d bytes", maxIDLength)
	case strings.ContainsAny(id, "/?#"):
		errs["id"] = "id must not contain '/', '?' or '#'"
	}

	if !utf8.ValidString(q.Text) {
		errs["text"] = "text must be valid UTF-8"
	} else if strings.TrimSpace(q.Text) == "" {
		errs["text"] = "text is required"
	} else if n := utf8.RuneCountInString(q.Text); n > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d characters, got %d", maxTextLength, n)
	}

	if utf8.RuneCountInString(q.Author) > maxAuthorLength {
		errs["author"] = fmt.Sprintf("author must be at most %d characters", maxAuthorLength)
	}
	if len(q.Tags) > maxTags {
		errs["tags"] = fmt.Sprintf("at most %d tags allowed", maxTags)
	}
	if len(errs) > 0 {
		return &ValidationError{ID: q.ID, Fields: errs}
	}
	return nil
}
