// file: internal/metadata/coverartarchive_test.go
// version: 1.0.0
// guid: f4f46515-39c8-4068-baa8-8f066017748c

package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/spit/internal/models"
)

func TestCoverArtArchiveFetch(t *testing.T) {
	mb := newMusicBrainzFixture(t)
	defer mb.Close()

	caa := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release/skom" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"images":[
			{"front":false,"back":true,"types":["Back"],"image":"https://caa.example/back.jpg"},
			{"front":true,"back":false,"types":["Front","Booklet"],"image":"https://caa.example/front.jpg"},
			{"front":false,"types":["Medium"],"image":""}
		]}`))
	}))
	defer caa.Close()

	client := NewCoverArtArchiveClientWithBaseURL(caa.URL, NewMusicBrainzClientWithBaseURL(mb.URL))
	assert.Equal(t, "coverartarchive", client.Name())

	items, err := client.Fetch(t.Context(), mustQuery(t, models.QueryParams{
		Category: models.CategoryCoverArt,
		Artist:   models.String("Metallica"),
		Album:    models.String("Some kind of monster"),
	}))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://caa.example/back.jpg", string(items[0].Data))
	assert.Equal(t, 0, items[0].Rank)
	assert.Equal(t, "front,booklet", items[1].Label)
	assert.Equal(t, 10, items[1].Rank)
	assert.Equal(t, caa.URL+"/release/skom", items[1].Source)
}

func TestCoverArtArchiveNoArtwork(t *testing.T) {
	mb := newMusicBrainzFixture(t)
	defer mb.Close()

	caa := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer caa.Close()

	client := NewCoverArtArchiveClientWithBaseURL(caa.URL, NewMusicBrainzClientWithBaseURL(mb.URL))

	for _, album := range []string{"Some kind of monster", "Not An Album"} {
		items, err := client.Fetch(t.Context(), mustQuery(t, models.QueryParams{
			Category: models.CategoryCoverArt,
			Artist:   models.String("Metallica"),
			Album:    models.String(album),
		}))
		require.NoError(t, err, album)
		assert.Empty(t, items, album)
	}
}
