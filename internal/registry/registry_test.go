// file: internal/registry/registry_test.go
// version: 1.1.0
// guid: a63a2882-388c-44e4-b5f1-f04ad26af328

package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/spit/internal/models"
)

type stubProvider struct {
	name       string
	categories []models.Category
}

func (s stubProvider) Name() string                  { return s.name }
func (s stubProvider) Categories() []models.Category { return s.categories }
func (s stubProvider) Fetch(context.Context, models.Query) ([]models.RawItem, error) {
	return nil, nil
}

func query(t *testing.T, c models.Category, from string) models.Query {
	t.Helper()
	q, err := models.BuildQuery(models.QueryParams{
		Category:     c,
		SourceFilter: from,
		Artist:       models.String("Metallica"),
		Album:        models.String("Master of Puppets"),
		Track:        models.String("Battery"),
	})
	require.NoError(t, err)
	return q
}

func names(entries []*Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Descriptor.Name)
	}
	return out
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	require.NoError(t, r.Register(
		models.Descriptor{Group: models.GroupSafe, Enabled: true},
		stubProvider{"musicbrainz", []models.Category{models.CategoryRelations, models.CategoryTracklist}},
	))
	require.NoError(t, r.Register(
		models.Descriptor{Group: models.GroupSafe, Enabled: true},
		stubProvider{"discogs", []models.Category{models.CategoryRelations, models.CategoryCoverArt}},
	))
	require.NoError(t, r.Register(
		models.Descriptor{Group: models.GroupUnsafe, Enabled: true},
		stubProvider{"scraper", []models.Category{models.CategoryCoverArt, models.CategoryLyrics}},
	))
	require.NoError(t, r.Register(
		models.Descriptor{Group: models.GroupSafe, Enabled: false},
		stubProvider{"offline", []models.Category{models.CategoryRelations}},
	))
	return r
}

func TestRegisterDefaults(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(models.Descriptor{Enabled: true}, stubProvider{"lrclib", []models.Category{models.CategoryLyrics}}))

	e, ok := r.Lookup("LRCLIB")
	require.True(t, ok)
	assert.Equal(t, "lrclib", e.Descriptor.Name)
	assert.Equal(t, models.GroupSafe, e.Descriptor.Group)
	assert.Equal(t, []models.Category{models.CategoryLyrics}, e.Descriptor.Categories)
	assert.Equal(t, 0, e.Index)
	assert.Equal(t, 1, r.Len())
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"discogs", "discogs", true},
		{"DISCOGS", "discogs", true},
		{"music", "musicbrainz", true},
		{"  Scr ", "scraper", true},
		{"off", "offline", true},
		{"lastfm", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := r.Lookup(tt.name)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, e.Descriptor.Name)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register(models.Descriptor{Enabled: true}, stubProvider{"MusicBrainz", []models.Category{models.CategoryRelations}})
	assert.ErrorIs(t, err, ErrDuplicateProvider)
}

func TestRegisterUnsupportedCategory(t *testing.T) {
	r := New()
	err := r.Register(
		models.Descriptor{Categories: []models.Category{models.CategoryLyrics}},
		stubProvider{"musicbrainz", []models.Category{models.CategoryRelations}},
	)
	assert.ErrorIs(t, err, ErrUnsupportedCategory)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterNilProvider(t *testing.T) {
	assert.Error(t, New().Register(models.Descriptor{Name: "x"}, nil))
}

func TestRegisterAfterFreeze(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()
	err := r.Register(models.Descriptor{}, stubProvider{"late", []models.Category{models.CategoryLyrics}})
	assert.ErrorIs(t, err, ErrRegistryFrozen)
	assert.Panics(t, func() {
		r.MustRegister(models.Descriptor{}, stubProvider{"later", []models.Category{models.CategoryLyrics}})
	})
}

func TestEligibleProviders(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name     string
		category models.Category
		from     string
		expected []string
	}{
		{"all by default", models.CategoryRelations, "", []string{"musicbrainz", "discogs"}},
		{"explicit all", models.CategoryCoverArt, "all", []string{"discogs", "scraper"}},
		{"by name", models.CategoryRelations, "musicbrainz", []string{"musicbrainz"}},
		{"case insensitive", models.CategoryRelations, "DiscoGS", []string{"discogs"}},
		{"by group", models.CategoryCoverArt, "unsafe", []string{"scraper"}},
		{"combined", models.CategoryCoverArt, "scraper;discogs", []string{"discogs", "scraper"}},
		{"no provider for category", models.CategoryArtistBio, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.EligibleProviders(query(t, tt.category, tt.from))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, nilIfEmpty(names(got)))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestEligibleProvidersUnknownSource(t *testing.T) {
	r := newTestRegistry(t)

	for _, from := range []string{"nosuchprovider", "scraper", "offline"} {
		_, err := r.EligibleProviders(query(t, models.CategoryRelations, from))
		assert.ErrorIs(t, err, ErrUnknownSource, from)
	}
}

func TestProvidersOrderAndConcurrentReads(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	assert.Equal(t, []string{"musicbrainz", "discogs", "scraper", "offline"}, names(r.Providers()))

	q := query(t, models.CategoryRelations, "")
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.EligibleProviders(q)
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()
}
