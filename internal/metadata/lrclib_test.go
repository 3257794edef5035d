// file: internal/metadata/lrclib_test.go
// version: 1.0.0
// guid: aa38e313-2a2c-4851-9494-d2bdc7e520cf

package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/spit/internal/models"
)

func TestLRCLibFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/get" || q.Get("artist_name") != "Metallica" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch q.Get("track_name") {
		case "One":
			_, _ = w.Write([]byte(`{"id":1,"trackName":"One","artistName":"Metallica","plainLyrics":"I can't remember anything\n","syncedLyrics":"[00:01.00] I can't remember anything"}`))
		case "Orion":
			_, _ = w.Write([]byte(`{"id":2,"trackName":"Orion","artistName":"Metallica","instrumental":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewLRCLibClientWithBaseURL(server.URL)
	assert.Equal(t, []models.Category{models.CategoryLyrics}, client.Categories())

	items, err := client.Fetch(t.Context(), mustQuery(t, models.QueryParams{
		Category: models.CategoryLyrics,
		Artist:   models.String("Metallica"),
		Track:    models.String("One"),
	}))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "plain", items[0].Label)
	assert.Equal(t, "I can't remember anything", string(items[0].Data))
	assert.Equal(t, 1, items[0].Rank)
	assert.Equal(t, "synced", items[1].Label)

	for _, track := range []string{"Orion", "Unknown Song"} {
		items, err := client.Fetch(t.Context(), mustQuery(t, models.QueryParams{
			Category: models.CategoryLyrics,
			Artist:   models.String("Metallica"),
			Track:    models.String(track),
		}))
		require.NoError(t, err, track)
		assert.Empty(t, items, track)
	}
}

func TestLRCLibServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewLRCLibClientWithBaseURL(server.URL).Fetch(t.Context(), mustQuery(t, models.QueryParams{
		Category: models.CategoryLyrics,
		Artist:   models.String("Metallica"),
		Track:    models.String("One"),
	}))
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "lrclib", pe.Provider)
}
