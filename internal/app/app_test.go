// file: internal/app/app_test.go
// version: 1.1.0
// guid: 50370e8f-3972-4704-b470-be484366f85b

package app

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/spit/internal/cache"
	"github.com/jdfalk/spit/internal/config"
	"github.com/jdfalk/spit/internal/logging"
	"github.com/jdfalk/spit/internal/models"
)

// musicBrainzStub answers the handful of MusicBrainz calls the relations
// lookups make.
func musicBrainzStub(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		query := r.URL.Query().Get("query")
		switch r.URL.Path {
		case "/ws/2/artist":
			if strings.Contains(query, "Metallica") {
				_, _ = w.Write([]byte(`{"artists":[{"id":"mb-1","name":"Metallica","score":100}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"artists":[{"id":"nope","name":"Gnomon","score":21}]}`))
		case "/ws/2/artist/mb-1":
			rels := make([]string, 0, 40)
			for i := range 40 {
				rels = append(rels, fmt.Sprintf(`{"type":"discogs","url":{"resource":"https://example.org/%d"}}`, i))
			}
			// Duplicate of the first link in another spelling.
			rels = append(rels, `{"type":"discogs","url":{"resource":"https://EXAMPLE.org/0/"}}`)
			_, _ = fmt.Fprintf(w, `{"relations":[%s]}`, strings.Join(rels, ","))
		case "/ws/2/release":
			_, _ = w.Write([]byte(`{"releases":[{"id":"rel-1","title":"Some Kind of Monster","score":100,"artist-credit":[{"name":"Metallica"}]}]}`))
		case "/ws/2/release/rel-1":
			_, _ = w.Write([]byte(`{"id":"rel-1","asin":"B0002IQJ8C","relations":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testConfig(t *testing.T, mbURL string) config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("providers.musicbrainz.base_url", mbURL)
	v.Set("providers.musicbrainz.rate_limit", 0)
	v.Set("cache.type", "memory")
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func relations(t *testing.T, artist, album string, maxResults int) models.Query {
	t.Helper()
	p := models.QueryParams{
		Category:     models.CategoryRelations,
		SourceFilter: "musicbrainz",
		Artist:       models.String(artist),
		MaxResults:   maxResults,
	}
	if album != "" {
		p.Album = models.String(album)
	}
	q, err := models.BuildQuery(p)
	require.NoError(t, err)
	return q
}

func TestRelationsScenarios(t *testing.T) {
	var hits atomic.Int32
	mb := musicBrainzStub(t, &hits)
	defer mb.Close()

	a, err := Build(testConfig(t, mb.URL), logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	t.Run("unknown artist", func(t *testing.T) {
		results, err := a.Dispatcher.Retrieve(t.Context(), relations(t, "Gnomoquadrupelupedia", "", 0), 0)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("artist capped at ten", func(t *testing.T) {
		results, err := a.Dispatcher.Retrieve(t.Context(), relations(t, "Metallica", "", 10), 0)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.LessOrEqual(t, len(results), 10)
		for _, r := range results {
			assert.NotEmpty(t, r.Data)
			assert.Equal(t, "musicbrainz", r.Provider)
		}
	})

	t.Run("artist uncapped is de-duplicated", func(t *testing.T) {
		results, err := a.Dispatcher.Retrieve(t.Context(), relations(t, "Metallica", "", 0), 0)
		require.NoError(t, err)
		assert.Len(t, results, 40)
	})

	t.Run("album has exactly one record", func(t *testing.T) {
		results, err := a.Dispatcher.Retrieve(t.Context(), relations(t, "Metallica", "Some kind of monster", 0), 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "https://www.amazon.com/dp/B0002IQJ8C", results[0].Text())
	})

	t.Run("warm cache answers without the network", func(t *testing.T) {
		q := relations(t, "Metallica", "Some kind of monster", 0)
		before := hits.Load()
		results, err := a.Dispatcher.Retrieve(t.Context(), q, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, before, hits.Load())
	})

	t.Run("unregistered source is empty", func(t *testing.T) {
		q, err := models.BuildQuery(models.QueryParams{
			Category:     models.CategoryRelations,
			SourceFilter: "nonexistent",
			Artist:       models.String("Metallica"),
		})
		require.NoError(t, err)
		results, err := a.Dispatcher.Retrieve(t.Context(), q, 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestBuildRegistry(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	reg, err := BuildRegistry(cfg, logging.Discard())
	require.NoError(t, err)

	var names []string
	for _, e := range reg.Providers() {
		names = append(names, e.Descriptor.Name)
	}
	assert.Equal(t, ProviderOrder, names)

	lastfm, ok := reg.Lookup("lastfm")
	require.True(t, ok)
	assert.False(t, lastfm.Descriptor.Enabled, "no API key configured")

	cfg.LastFM.APIKey = "key"
	reg, err = BuildRegistry(cfg, logging.Discard())
	require.NoError(t, err)
	lastfm, _ = reg.Lookup("lastfm")
	assert.True(t, lastfm.Descriptor.Enabled)
}

func TestOpenCache(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{"pebble", "sqlite"} {
		store, err := OpenCache(config.CacheConfig{Type: backend, Path: filepath.Join(dir, backend), TTL: time.Hour})
		require.NoError(t, err, backend)
		require.NoError(t, store.Put("k", []models.RawItem{{Data: []byte("v")}}))
		require.NoError(t, store.Close())
	}

	store, err := OpenCache(config.CacheConfig{Type: "none"})
	require.NoError(t, err)
	assert.IsType(t, cache.NopStore{}, store)
}

func TestApply(t *testing.T) {
	a, err := Build(testConfig(t, "http://127.0.0.1:1"), logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	cfg := a.Config
	cfg.Strict = true
	cfg.Timeout = 3 * time.Second
	cfg.Blacklist = []string{"https://bad.example"}
	a.Apply(cfg)

	opts := a.Dispatcher.Options()
	assert.True(t, opts.Strict)
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.Equal(t, []string{"https://bad.example"}, opts.Blacklist)
	assert.True(t, a.Config.Strict)
}

func TestWarmCacheKeepsFullList(t *testing.T) {
	var calls atomic.Int32
	lastfm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Honour limit the way the real API does.
		limit := 5
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n < limit {
			limit = n
		}
		names := []string{"Megadeth", "Slayer", "Anthrax", "Exodus", "Testament"}[:limit]
		artists := make([]string, 0, len(names))
		for i, name := range names {
			artists = append(artists, fmt.Sprintf(`{"name":%q,"match":%.2f}`, name, 1-float64(i)/10))
		}
		_, _ = fmt.Fprintf(w, `{"similarartists":{"artist":[%s]}}`, strings.Join(artists, ","))
	}))
	defer lastfm.Close()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.LastFM.APIKey = "key"
	pc := cfg.Providers["lastfm"]
	pc.BaseURL = lastfm.URL
	pc.RateLimit = 0
	cfg.Providers["lastfm"] = pc

	a, err := Build(cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	similar := func(maxResults int) models.Query {
		q, err := models.BuildQuery(models.QueryParams{
			Category:     models.CategorySimilarArtists,
			SourceFilter: "lastfm",
			Artist:       models.String("Metallica"),
			MaxResults:   maxResults,
		})
		require.NoError(t, err)
		return q
	}

	results, err := a.Dispatcher.Retrieve(t.Context(), similar(2), 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Megadeth", results[0].Text())

	results, err = a.Dispatcher.Retrieve(t.Context(), similar(0), 0)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.EqualValues(t, 1, calls.Load(), "second retrieval comes from the cache")
}
