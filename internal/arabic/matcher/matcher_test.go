package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	testData := []struct {
		name     string
		text     string
		query    string
		fuzzy    bool
		expected bool
	}{
		{"empty text", "", "محمد", true, false},
		{"empty query", "محمد", "", true, false},
		{"blank query", "محمد", "  \t", true, false},
		{"diacritics only text", "ًٌٍ", "محمد", true, false},
		{"query longer than text", "كتاب", "كتاب جديد مفيد", false, false},
		{"query equal to text", "كتاب", "كتاب", false, true},
		{"diacritics", "مُحَمَّد", "محمد", false, true},
		{"diacritics in query", "محمد", "مُحَمَّد", false, true},
		{"alif variant", "أحمد", "احمد", false, true},
		{"taa marbuta", "مدرسة", "مدرسه", false, true},
		{"alif maksura", "على الطريق", "علي", false, true},
		{"negative", "كتاب", "قلم", true, false},
		{"latin case", "Hello العالم", "HELLO", false, true},
		{"out of order words fuzzy", "الحمد لله رب العالمين", "لله الحمد", true, true},
		{"out of order words exact", "الحمد لله رب العالمين", "لله الحمد", false, false},
		{"one word missing", "الحمد لله رب العالمين", "لله الرحمن", true, false},
		{"exact substring", "الإسلام دين", "اسل", true, true},
		{"exact two letters", "الإسلام دين", "سل", true, true},
		{"prefix fallback", "الإسلام دين", "الاس ب", true, true},
		{"prefix needs fuzzy", "الإسلام دين", "الاس ب", false, false},
		{"short token below prefix threshold", "الإسلام دين", "سل ب", true, false},
		{"short query", "الإسلام دين", "سب", true, false},
	}
	for _, d := range testData {
		t.Run(d.name, func(t *testing.T) {
			assert.Equal(t, d.expected, Contains(d.text, d.query, d.fuzzy))
		})
	}
}

func TestContainsFuzzyDefault(t *testing.T) {
	assert.True(t, ContainsFuzzy("الحمد لله رب العالمين", "العالمين الحمد"))
	assert.False(t, ContainsFuzzy("الحمد لله رب العالمين", "الرحيم"))
}

func TestMatcherReuse(t *testing.T) {
	m := New("الصَّبْر", true)
	assert.Equal(t, "الصبر", m.Query())
	assert.True(t, m.Match("إن الصبر مفتاح الفرج"))
	assert.False(t, m.Match("العلم نور"))
	assert.False(t, New("", true).Match("العلم نور"))
}

func TestCountOccurrences(t *testing.T) {
	testData := []struct {
		text     string
		query    string
		expected int
	}{
		{"لا إله إلا الله لا إله إلا الله", "لا إله", 2},
		{"الله الله الله", "الله", 3},
		{"اااا", "اا", 2},
		{"مُحَمَّد ومحمد", "محمد", 2},
		{"كتاب", "قلم", 0},
		{"", "قلم", 0},
		{"كتاب", "", 0},
		{"كتاب", "   ", 0},
	}
	for _, d := range testData {
		assert.Equal(t, d.expected, CountOccurrences(d.text, d.query), "text %q query %q", d.text, d.query)
	}
}

func BenchmarkContainsFuzzy(b *testing.B) {
	text := "الحمد لله رب العالمين الرحمن الرحيم مالك يوم الدين"
	m := New("الدين الرحيم", true)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = m.Match(text)
	}
}
