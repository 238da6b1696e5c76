package quotes

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
)

func TestFileSourceYAML(t *testing.T) {
	quotes, err := FileSource{Path: filepath.Join("testdata", "quotes.yaml")}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 4)
	assert.Equal(t, "q1", quotes[0].ID)
	assert.Equal(t, "صحيح البخاري", quotes[0].Source)
	assert.Equal(t, []string{"نية", "عمل"}, quotes[0].Tags)
}

func TestFileSourceJSON(t *testing.T) {
	quotes, err := FileSource{Path: filepath.Join("testdata", "quotes.json")}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "مثل عربي", quotes[0].Author)
	assert.Equal(t, []string{"اجتهاد"}, quotes[1].Tags)
}

func TestFileSourceErrors(t *testing.T) {
	_, err := FileSource{Path: filepath.Join("testdata", "missing.yaml")}.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCorpusSource)

	_, err = FileSource{Path: filepath.Join("testdata", "broken.yaml")}.Load(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileSource{Path: filepath.Join("testdata", "quotes.yaml")}.Load(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecode(t *testing.T) {
	testData := []struct {
		name string
		data string
		ext  string
		ids  []string
	}{
		{"yaml list", "- id: a\n  text: أ\n- id: b\n  text: ب\n", ".yml", []string{"a", "b"}},
		{"yaml object", "quotes:\n  - id: a\n    text: أ\n", ".YAML", []string{"a"}},
		{"json object", `{"quotes":[{"id":"a","text":"أ"}]}`, ".json", []string{"a"}},
		{"json list with bom", "\xef\xbb\xbf [{\"id\":\"a\",\"text\":\"أ\"}]", "", []string{"a"}},
	}
	for _, d := range testData {
		t.Run(d.name, func(t *testing.T) {
			quotes, err := Decode([]byte(d.data), d.ext)
			require.NoError(t, err)
			ids := make([]string, len(quotes))
			for i, q := range quotes {
				ids[i] = q.ID
			}
			assert.Equal(t, d.ids, ids)
		})
	}

	_, err := Decode([]byte("{not json"), ".json")
	assert.Error(t, err)
}
