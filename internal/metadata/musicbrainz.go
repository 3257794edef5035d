// file: internal/metadata/musicbrainz.go
// version: 1.1.0
// guid: 1e98ca27-92df-41f7-b0cf-20c4740d0134

package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdfalk/spit/internal/models"
)

// MusicBrainzClient serves relations, album lists and tracklists from the
// MusicBrainz web service. MusicBrainz asks clients to stay at or below one
// request per second, so every request waits on limiter.
type MusicBrainzClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	minScore   int
}

// NewMusicBrainzClient creates a client for the public MusicBrainz API.
func NewMusicBrainzClient() *MusicBrainzClient {
	c := NewMusicBrainzClientWithBaseURL(baseURLFromEnv("MUSICBRAINZ_BASE_URL", "https://musicbrainz.org"))
	c.limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	return c
}

// NewMusicBrainzClientWithBaseURL creates an unthrottled client with a custom base URL (for testing).
func NewMusicBrainzClientWithBaseURL(baseURL string) *MusicBrainzClient {
	return &MusicBrainzClient{
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		minScore:   90,
	}
}

func (c *MusicBrainzClient) Name() string { return "musicbrainz" }

func (c *MusicBrainzClient) Categories() []models.Category {
	return []models.Category{models.CategoryRelations, models.CategoryAlbumList, models.CategoryTracklist}
}

type mbArtist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type mbArtistCredit struct {
	Name string `json:"name"`
}

type mbRelation struct {
	Type string `json:"type"`
	URL  struct {
		Resource string `json:"resource"`
	} `json:"url"`
}

type mbTrack struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
}

type mbMedium struct {
	Position int       `json:"position"`
	Tracks   []mbTrack `json:"tracks"`
}

type mbRelease struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Score        int              `json:"score"`
	ASIN         string           `json:"asin"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	Relations    []mbRelation     `json:"relations"`
	Media        []mbMedium       `json:"media"`
}

type mbReleaseGroup struct {
	Title            string `json:"title"`
	FirstReleaseDate string `json:"first-release-date"`
	PrimaryType      string `json:"primary-type"`
}

// Fetch dispatches on the query category.
func (c *MusicBrainzClient) Fetch(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	var (
		items []models.RawItem
		err   error
	)
	switch q.Category() {
	case models.CategoryRelations:
		items, err = c.relations(ctx, q)
	case models.CategoryAlbumList:
		items, err = c.albumList(ctx, q)
	case models.CategoryTracklist:
		items, err = c.tracklist(ctx, q)
	default:
		return nil, unsupported(c.Name(), q.Category())
	}
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return items, providerError(c.Name(), q.Category().String(), err)
}

func (c *MusicBrainzClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	params.Set("fmt", "json")
	return getJSON(ctx, c.httpClient, c.baseURL+path+"?"+params.Encode(), out)
}

// relations returns the url relations of an artist. For an album it returns
// the release's ASIN link, or its first url relation when it has no ASIN.
func (c *MusicBrainzClient) relations(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	if album, ok := q.Album(); ok {
		release, err := c.findRelease(ctx, artist, album, "url-rels")
		if err != nil || release == nil {
			return nil, err
		}
		source := fmt.Sprintf("%s/release/%s", c.baseURL, release.ID)
		if release.ASIN != "" {
			return []models.RawItem{{
				Data:   []byte("https://www.amazon.com/dp/" + release.ASIN),
				Label:  "amazon asin",
				Source: source,
			}}, nil
		}
		// An album has one canonical link.
		items := relationItems(release.Relations, source)
		return items[:min(1, len(items))], nil
	}

	found, err := c.findArtist(ctx, artist)
	if err != nil || found == nil {
		return nil, err
	}
	var lookup struct {
		Relations []mbRelation `json:"relations"`
	}
	if err := c.get(ctx, "/ws/2/artist/"+url.PathEscape(found.ID), url.Values{"inc": {"url-rels"}}, &lookup); err != nil {
		return nil, err
	}
	return relationItems(lookup.Relations, fmt.Sprintf("%s/artist/%s", c.baseURL, found.ID)), nil
}

func relationItems(rels []mbRelation, source string) []models.RawItem {
	items := make([]models.RawItem, 0, len(rels))
	for _, rel := range rels {
		if rel.URL.Resource == "" {
			continue
		}
		items = append(items, models.RawItem{
			Data:   []byte(rel.URL.Resource),
			Label:  rel.Type,
			Source: source,
		})
	}
	return items
}

func (c *MusicBrainzClient) albumList(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	found, err := c.findArtist(ctx, artist)
	if err != nil || found == nil {
		return nil, err
	}

	params := url.Values{"artist": {found.ID}, "type": {"album"}, "limit": {"100"}}
	var resp struct {
		ReleaseGroups []mbReleaseGroup `json:"release-groups"`
	}
	if err := c.get(ctx, "/ws/2/release-group", params, &resp); err != nil {
		return nil, err
	}

	source := fmt.Sprintf("%s/artist/%s", c.baseURL, found.ID)
	items := make([]models.RawItem, 0, len(resp.ReleaseGroups))
	for _, rg := range resp.ReleaseGroups {
		if rg.Title == "" {
			continue
		}
		item := models.RawItem{Data: []byte(rg.Title), Source: source}
		if len(rg.FirstReleaseDate) >= 4 {
			item.Label = rg.FirstReleaseDate[:4]
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *MusicBrainzClient) tracklist(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	album, _ := q.Album()
	release, err := c.findRelease(ctx, artist, album, "recordings")
	if err != nil || release == nil {
		return nil, err
	}

	source := fmt.Sprintf("%s/release/%s", c.baseURL, release.ID)
	var items []models.RawItem
	for _, medium := range release.Media {
		for _, track := range medium.Tracks {
			if track.Title == "" {
				continue
			}
			items = append(items, models.RawItem{
				Data:   []byte(track.Title),
				Label:  fmt.Sprintf("%d.%02d", medium.Position, track.Position),
				Source: source,
			})
		}
	}
	return items, nil
}

// findArtist searches for an artist and returns the first trustworthy hit, or nil.
func (c *MusicBrainzClient) findArtist(ctx context.Context, name string) (*mbArtist, error) {
	var resp struct {
		Artists []mbArtist `json:"artists"`
	}
	params := url.Values{"query": {fmt.Sprintf("artist:%q", name)}, "limit": {"5"}}
	if err := c.get(ctx, "/ws/2/artist", params, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Artists {
		a := &resp.Artists[i]
		if a.Score >= c.minScore && nameMatches(name, a.Name) {
			return a, nil
		}
	}
	slog.Debug("MusicBrainz: no matching artist", "artist", name, "candidates", len(resp.Artists))
	return nil, nil
}

// findRelease searches for a release by artist and title and, when inc is
// set, looks it up with those includes. Returns nil when nothing matches.
func (c *MusicBrainzClient) findRelease(ctx context.Context, artist, album, inc string) (*mbRelease, error) {
	var resp struct {
		Releases []mbRelease `json:"releases"`
	}
	params := url.Values{
		"query": {fmt.Sprintf("release:%q AND artist:%q", album, artist)},
		"limit": {"5"},
	}
	if err := c.get(ctx, "/ws/2/release", params, &resp); err != nil {
		return nil, err
	}

	var match *mbRelease
	for i := range resp.Releases {
		r := &resp.Releases[i]
		if r.Score < c.minScore || !nameMatches(album, r.Title) {
			continue
		}
		if len(r.ArtistCredit) > 0 && !nameMatches(artist, r.ArtistCredit[0].Name) {
			continue
		}
		match = r
		break
	}
	if match == nil {
		slog.Debug("MusicBrainz: no matching release", "artist", artist, "album", album, "candidates", len(resp.Releases))
		return nil, nil
	}

	if inc == "" {
		return match, nil
	}

	var release mbRelease
	if err := c.get(ctx, "/ws/2/release/"+url.PathEscape(match.ID), url.Values{"inc": {inc}}, &release); err != nil {
		return nil, err
	}
	if release.ID == "" {
		release.ID = match.ID
	}
	return &release, nil
}
