package quotes

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testData := []struct {
		name   string
		quote  Quote
		fields []string
	}{
		{"valid", Quote{ID: "q1", Text: "العلم نور"}, nil},
		{"missing id", Quote{Text: "العلم نور"}, []string{"id"}},
		{"id with slash", Quote{ID: "a/b", Text: "العلم نور"}, []string{"id"}},
		{"blank text", Quote{ID: "q1", Text: " \n "}, []string{"text"}},
		{"invalid utf8", Quote{ID: "q1", Text: "\xff\xfe"}, []string{"text"}},
		{"text too long", Quote{ID: "q1", Text: strings.Repeat("ع", 11)}, []string{"text"}},
		{"too many tags", Quote{ID: "q1", Text: "نص", Tags: make([]string, maxTags+1)}, []string{"tags"}},
		{"several fields", Quote{Author: strings.Repeat("a", maxAuthorLength+1)}, []string{"author", "id", "text"}},
	}
	for _, d := range testData {
		t.Run(d.name, func(t *testing.T) {
			err := Validate(d.quote, 10)
			if d.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			got := make([]string, 0, len(verr.Fields))
			for f := range verr.Fields {
				got = append(got, f)
			}
			assert.ElementsMatch(t, d.fields, got)
		})
	}
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := Validate(Quote{ID: "", Text: ""}, 0)
	require.Error(t, err)
	assert.Equal(t, `quote "": id:id is required; text:text is required`, err.Error())
}

func TestValidateDefaultLimit(t *testing.T) {
	assert.NoError(t, Validate(Quote{ID: "q", Text: strings.Repeat("ع", DefaultMaxTextLength)}, 0))
	assert.Error(t, Validate(Quote{ID: "q", Text: strings.Repeat("ع", DefaultMaxTextLength+1)}, 0))
}
