package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	testData := []struct {
		name     string
		text     string
		query    string
		expected int
	}{
		{"leading whole word", "السلام عليكم", "السلام", 180},
		{"trailing whole word", "عليكم السلام", "السلام", 130},
		{"inside a longer word", "الكتاب", "كتاب", 110},
		{"leading inside a longer word", "كتابة", "كتاب", 160},
		{"phrase and both tokens", "الحمد لله رب العالمين", "رب العالمين", 160},
		{"tokens out of order", "العالمين رب", "رب العالمين", 60},
		{"one token missing", "رب السماوات", "رب العالمين", 30},
		{"diacritics ignored", "السَّلَامُ عَلَيْكُمْ", "السلام", 180},
		{"single letter tokens add nothing", "و الله", "و", 150},
		{"prefix token inside a word", "الإسلام دين", "الاس ب", 10},
		{"latin whole word", "cat category", "CAT", 180},
		{"no match", "العلم نور", "الصبر", 0},
		{"empty query", "العلم نور", "", 0},
		{"empty text", "", "العلم", 0},
	}
	for _, d := range testData {
		t.Run(d.name, func(t *testing.T) {
			assert.Equal(t, d.expected, Score(d.text, d.query))
		})
	}
}

func TestScorerQuery(t *testing.T) {
	s := NewScorer("  الصَّبْرُ   مفتاح ")
	assert.Equal(t, "الصبر مفتاح", s.Query())
	assert.Equal(t, []string{"الصبر", "مفتاح"}, s.Tokens())
	assert.False(t, s.Empty())
	assert.True(t, NewScorer("ًٌ").Empty())
}

func TestRank(t *testing.T) {
	got := RankStrings([]string{"عليكم السلام", "العلم نور", "السلام عليكم"}, "السلام")
	require.Len(t, got, 2)
	assert.Equal(t, Scored[string]{Record: "السلام عليكم", Score: 180}, got[0])
	assert.Equal(t, Scored[string]{Record: "عليكم السلام", Score: 130}, got[1])
}

func TestRankKeepsInputOrderOnTies(t *testing.T) {
	type quote struct {
		id   int
		text string
	}
	records := []quote{
		{1, "نص أول عن الكتاب"},
		{2, "كتاب"},
		{3, "نص ثان عن الكتاب"},
		{4, "نص ثالث عن الكتاب"},
	}
	got := Rank(records, "كتاب", func(q quote) string { return q.text })
	require.Len(t, got, 4)
	ids := make([]int, len(got))
	for i, s := range got {
		ids[i] = s.Record.id
	}
	assert.Equal(t, []int{2, 1, 3, 4}, ids)
	for _, s := range got {
		assert.Positive(t, s.Score)
	}
}

func TestRankEmpty(t *testing.T) {
	got := RankStrings([]string{"كتاب"}, "   ")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = RankStrings(nil, "كتاب")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, RankStrings([]string{"قلم", "دفتر"}, "كتاب"))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("الحمد لله", "لله"))
	assert.True(t, containsWord("لله،", "لله"))
	assert.False(t, containsWord("الله", "لله"))
	assert.True(t, containsWord("الله لله", "لله"))
	assert.False(t, containsWord("abc1", "abc"))
}

func BenchmarkRank(b *testing.B) {
	texts := []string{
		"إِنَّمَا الأَعْمَالُ بِالنِّيَّاتِ",
		"الدين النصيحة",
		"من كان يؤمن بالله واليوم الآخر فليقل خيرا أو ليصمت",
		"خيركم من تعلم القرآن وعلمه",
		"لا يؤمن أحدكم حتى يحب لأخيه ما يحب لنفسه",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = RankStrings(texts, "يؤمن")
	}
}
