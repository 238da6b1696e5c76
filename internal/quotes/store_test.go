package quotes

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
)

func TestStoreAddGet(t *testing.T) {
	s := NewStore(4)
	require.NoError(t, s.Add(Quote{ID: "q1", Text: "إِنَّمَا الأَعْمَالُ بِالنِّيَّاتِ"}))
	require.NoError(t, s.Add(Quote{ID: "q2", Text: "العلم نور"}))

	e, err := s.Get("q1")
	require.NoError(t, err)
	assert.Equal(t, "انما الاعمال بالنيات", e.Normalized)
	assert.Equal(t, 0, e.Ordinal)

	e, err = s.Get("q2")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Ordinal)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, apperrors.ErrQuoteNotFound)

	assert.ErrorIs(t, s.Add(Quote{ID: "q1", Text: "مكرر"}), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, s.Add(Quote{Text: "بلا معرف"}), apperrors.ErrInvalidInput)
	assert.Equal(t, 2, s.Len())
}

func TestStoreShardsPartitionTheCorpus(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Add(Quote{ID: fmt.Sprintf("q%02d", i), Text: "نص"}))
	}
	shards := s.Shards()
	require.Len(t, shards, 3)
	total := 0
	for i, entries := range shards {
		total += len(entries)
		for j, e := range entries {
			assert.Equal(t, i, s.ShardFor(e.ID))
			if j > 0 {
				assert.Less(t, entries[j-1].Ordinal, e.Ordinal)
			}
		}
	}
	assert.Equal(t, 50, total)

	sizes := s.ShardSizes()
	assert.Equal(t, 50, sizes[0]+sizes[1]+sizes[2])

	all := s.All()
	require.Len(t, all, 50)
	for i, e := range all {
		assert.Equal(t, i, e.Ordinal)
		assert.Equal(t, fmt.Sprintf("q%02d", i), e.ID)
	}
}

func TestStoreReplaceAndReset(t *testing.T) {
	s := NewStore(2)
	require.NoError(t, s.Add(Quote{ID: "old", Text: "قديم"}))

	skipped := s.Replace([]Quote{
		{ID: "a", Text: "أ"},
		{ID: "b", Text: "ب"},
		{ID: "a", Text: "مكرر"},
	})
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, s.Len())
	_, err := s.Get("old")
	assert.ErrorIs(t, err, apperrors.ErrQuoteNotFound)
	e, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "أ", e.Text)

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.All())
}

func TestStoreConcurrentAdd(t *testing.T) {
	s := NewStore(8)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = s.Add(Quote{ID: fmt.Sprintf("w%d-%d", w, i), Text: "نص"})
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 100, s.Len())
	seen := make(map[int]bool)
	for _, e := range s.All() {
		assert.False(t, seen[e.Ordinal], "ordinal %d reused", e.Ordinal)
		seen[e.Ordinal] = true
	}
}

func TestNewStoreClampsShards(t *testing.T) {
	s := NewStore(0)
	assert.Equal(t, 1, s.NumShards())
	assert.Equal(t, 0, s.ShardFor("anything"))
}
