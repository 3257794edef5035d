// file: internal/metadata/lastfm.go
// version: 1.1.0
// guid: d8caa872-39c6-41c2-89e9-24776c970f96

package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jdfalk/spit/internal/models"
)

// LastFMClient serves artist biographies, similar artists and songs, and
// tags from the Last.fm 2.0 API. An API key is required.
type LastFMClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	lang       string
}

// NewLastFMClient creates a client for the public Last.fm API.
func NewLastFMClient(apiKey string) *LastFMClient {
	return NewLastFMClientWithBaseURL(baseURLFromEnv("LASTFM_BASE_URL", "https://ws.audioscrobbler.com"), apiKey)
}

// NewLastFMClientWithBaseURL creates a client with a custom base URL (for testing).
func NewLastFMClientWithBaseURL(baseURL, apiKey string) *LastFMClient {
	return &LastFMClient{
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		lang:       "en",
	}
}

// SetLanguage sets the biography language (ISO 639-1).
func (c *LastFMClient) SetLanguage(lang string) {
	if lang != "" {
		c.lang = lang
	}
}

func (c *LastFMClient) Name() string { return "lastfm" }

func (c *LastFMClient) Categories() []models.Category {
	return []models.Category{
		models.CategoryArtistBio,
		models.CategorySimilarArtists,
		models.CategorySimilarSongs,
		models.CategoryTags,
	}
}

// lfScore accepts Last.fm's numbers whether they arrive quoted or not.
type lfScore float64

func (s *lfScore) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid score %q: %w", raw, err)
	}
	*s = lfScore(f)
	return nil
}

type lfError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// lfNotFound is Last.fm's "Invalid parameters / not found" error code.
const lfNotFound = 6

type lfArtistInfo struct {
	lfError
	Artist struct {
		Name string `json:"name"`
		URL  string `json:"url"`
		Bio  struct {
			Summary string `json:"summary"`
			Content string `json:"content"`
		} `json:"bio"`
	} `json:"artist"`
}

type lfSimilarArtists struct {
	lfError
	SimilarArtists struct {
		Artist []struct {
			Name  string  `json:"name"`
			Match lfScore `json:"match"`
			URL   string  `json:"url"`
		} `json:"artist"`
	} `json:"similarartists"`
}

type lfSimilarTracks struct {
	lfError
	SimilarTracks struct {
		Track []struct {
			Name   string  `json:"name"`
			Match  lfScore `json:"match"`
			URL    string  `json:"url"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"similartracks"`
}

type lfTopTags struct {
	lfError
	TopTags struct {
		Tag []struct {
			Name  string  `json:"name"`
			Count lfScore `json:"count"`
			URL   string  `json:"url"`
		} `json:"tag"`
	} `json:"toptags"`
}

// Fetch dispatches on the query category.
func (c *LastFMClient) Fetch(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	if c.apiKey == "" {
		return nil, providerError(c.Name(), "fetch", ErrMissingCredentials)
	}
	var (
		items []models.RawItem
		err   error
	)
	switch q.Category() {
	case models.CategoryArtistBio:
		items, err = c.artistBio(ctx, q)
	case models.CategorySimilarArtists:
		items, err = c.similarArtists(ctx, q)
	case models.CategorySimilarSongs:
		items, err = c.similarSongs(ctx, q)
	case models.CategoryTags:
		items, err = c.tags(ctx, q)
	default:
		return nil, unsupported(c.Name(), q.Category())
	}
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	return items, providerError(c.Name(), q.Category().String(), err)
}

func (c *LastFMClient) call(ctx context.Context, method string, params url.Values, out any) (string, error) {
	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("autocorrect", "1")
	endpoint := c.baseURL + "/2.0/?" + params.Encode()
	return apiKeyRedacted(endpoint), getJSON(ctx, c.httpClient, endpoint, out)
}

func (e lfError) err() error {
	switch e.Code {
	case 0:
		return nil
	case lfNotFound:
		return errNotFound
	}
	return fmt.Errorf("last.fm error %d: %s", e.Code, e.Message)
}

// bioFooters are appended by Last.fm to every biography.
var bioFooters = []string{"User-contributed text is available", "Read more on Last.fm"}

func cleanBio(s string) string {
	text := stripHTML(s)
	for _, footer := range bioFooters {
		if i := strings.Index(text, footer); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

func (c *LastFMClient) artistBio(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	var resp lfArtistInfo
	source, err := c.call(ctx, "artist.getinfo", url.Values{"artist": {artist}, "lang": {c.lang}}, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if !nameMatches(artist, resp.Artist.Name) {
		return nil, nil
	}

	var items []models.RawItem
	// The full text ranks above the teaser so a single-result query gets it.
	if content := cleanBio(resp.Artist.Bio.Content); content != "" {
		items = append(items, models.RawItem{Data: []byte(content), Label: "content", Source: source, Rank: 1})
	}
	if summary := cleanBio(resp.Artist.Bio.Summary); summary != "" {
		items = append(items, models.RawItem{Data: []byte(summary), Label: "summary", Source: source})
	}
	return items, nil
}

func (c *LastFMClient) similarArtists(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	// No limit: the full list is cached and the dispatcher truncates.
	params := url.Values{"artist": {artist}}
	var resp lfSimilarArtists
	source, err := c.call(ctx, "artist.getsimilar", params, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	items := make([]models.RawItem, 0, len(resp.SimilarArtists.Artist))
	for _, a := range resp.SimilarArtists.Artist {
		items = append(items, models.RawItem{
			Data:   []byte(a.Name),
			Label:  a.URL,
			Source: source,
			Rank:   int(float64(a.Match) * 100),
		})
	}
	return items, nil
}

func (c *LastFMClient) similarSongs(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	track, _ := q.Track()
	params := url.Values{"artist": {artist}, "track": {track}}
	var resp lfSimilarTracks
	source, err := c.call(ctx, "track.getsimilar", params, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	items := make([]models.RawItem, 0, len(resp.SimilarTracks.Track))
	for _, t := range resp.SimilarTracks.Track {
		items = append(items, models.RawItem{
			Data:   []byte(t.Artist.Name + " - " + t.Name),
			Label:  t.URL,
			Source: source,
			Rank:   int(float64(t.Match) * 100),
		})
	}
	return items, nil
}

func (c *LastFMClient) tags(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	artist, _ := q.Artist()
	var resp lfTopTags
	source, err := c.call(ctx, "artist.gettoptags", url.Values{"artist": {artist}}, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	items := make([]models.RawItem, 0, len(resp.TopTags.Tag))
	for _, t := range resp.TopTags.Tag {
		items = append(items, models.RawItem{
			Data:   []byte(t.Name),
			Label:  t.URL,
			Source: source,
			Rank:   int(t.Count),
		})
	}
	return items, nil
}

// apiKeyRedacted hides the key from a logged source URL.
func apiKeyRedacted(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

var _ json.Unmarshaler = (*lfScore)(nil)
