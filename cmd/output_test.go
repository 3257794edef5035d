// file: cmd/output_test.go
// version: 1.0.0
// guid: 9509d575-4934-4df7-96b0-7256e16a970e

package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/spit/internal/models"
)

func TestWriteResultsText(t *testing.T) {
	links := []models.Result{
		{Provider: "musicbrainz", Kind: models.CategoryRelations, Label: "wikipedia", Data: []byte("https://en.wikipedia.org/wiki/Metallica")},
		{Provider: "musicbrainz", Kind: models.CategoryRelations, Data: []byte("https://www.metallica.com/")},
	}
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "text", links))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Metallica\nhttps://www.metallica.com/\n", buf.String())

	lyrics := []models.Result{
		{Provider: "lrclib", Kind: models.CategoryLyrics, Label: "plain", Data: []byte("Line one\nLine two\n")},
		{Provider: "lyricsovh", Kind: models.CategoryLyrics, Data: []byte("Line one")},
	}
	buf.Reset()
	require.NoError(t, writeResults(&buf, "TEXT", lyrics))
	assert.Equal(t, "--- lrclib (plain)\nLine one\nLine two\n\n--- lyricsovh\nLine one\n", buf.String())
}

func TestWriteResultsStructured(t *testing.T) {
	results := []models.Result{
		{Provider: "lastfm", Kind: models.CategoryTags, Data: []byte("thrash metal"), Source: "https://last.fm", Rank: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "json", results))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "thrash metal", decoded[0]["data"])
	assert.Equal(t, "tags", decoded[0]["kind"])
	assert.EqualValues(t, 1, decoded[0]["rank"])

	buf.Reset()
	require.NoError(t, writeResults(&buf, "yaml", results))
	decoded = nil
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "thrash metal", decoded[0]["data"])
	assert.Equal(t, "lastfm", decoded[0]["provider"])
}

func TestWriteResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "json", nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResults(&buf, "text", nil))
	assert.Empty(t, buf.String())
}
