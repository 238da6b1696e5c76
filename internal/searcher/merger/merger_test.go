package merger

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

type hit struct {
	score   int
	ordinal int
}

func byScoreThenOrdinal(a, b hit) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.ordinal < b.ordinal
}

func TestMerge(t *testing.T) {
	shards := [][]hit{
		{{180, 0}, {130, 5}, {10, 7}},
		{{130, 2}, {110, 3}},
		{},
		{{180, 9}},
	}
	got := Merge(shards, 4, byScoreThenOrdinal)
	assert.Equal(t, []hit{{180, 0}, {180, 9}, {130, 2}, {130, 5}}, got)
}

func TestMergeDefaultLimit(t *testing.T) {
	list := make([]hit, 25)
	for i := range list {
		list[i] = hit{score: i, ordinal: i}
	}
	got := TopK(list, 0, byScoreThenOrdinal)
	assert.Len(t, got, 10)
	assert.Equal(t, 24, got[0].score)
}

func TestMergeMatchesStableSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	shards := make([][]hit, 5)
	for i := 0; i < 200; i++ {
		idx := rng.Intn(len(shards))
		shards[idx] = append(shards[idx], hit{score: rng.Intn(6) * 10, ordinal: i})
	}
	var flat []hit
	for _, s := range shards {
		flat = append(flat, s...)
	}
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].ordinal < flat[j].ordinal })
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].score > flat[j].score })

	got := Merge(shards, 15, byScoreThenOrdinal)
	assert.Equal(t, flat[:15], got)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge[hit](nil, 5, byScoreThenOrdinal))
}
