// file: internal/metadata/lrclib.go
// version: 1.0.0
// guid: 7a862079-8f5e-4d3f-802b-cc97a8a8af8d

package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jdfalk/spit/internal/models"
)

// LRCLibClient fetches song lyrics from LRCLIB. No API key is needed.
type LRCLibClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewLRCLibClient creates a client for the public LRCLIB API.
func NewLRCLibClient() *LRCLibClient {
	return NewLRCLibClientWithBaseURL(baseURLFromEnv("LRCLIB_BASE_URL", "https://lrclib.net"))
}

// NewLRCLibClientWithBaseURL creates a client with a custom base URL (for testing).
func NewLRCLibClientWithBaseURL(baseURL string) *LRCLibClient {
	return &LRCLibClient{
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *LRCLibClient) Name() string { return "lrclib" }

func (c *LRCLibClient) Categories() []models.Category {
	return []models.Category{models.CategoryLyrics}
}

type lrcRecord struct {
	ID           int64  `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Fetch returns the plain lyrics ahead of the time-synced LRC text.
func (c *LRCLibClient) Fetch(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	if q.Category() != models.CategoryLyrics {
		return nil, unsupported(c.Name(), q.Category())
	}
	artist, _ := q.Artist()
	track, _ := q.Track()

	params := url.Values{"artist_name": {artist}, "track_name": {track}}
	if album, ok := q.Album(); ok {
		params.Set("album_name", album)
	}
	source := c.baseURL + "/api/get?" + params.Encode()

	var rec lrcRecord
	if err := getJSON(ctx, c.httpClient, source, &rec); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, providerError(c.Name(), "lyrics", err)
	}
	if rec.Instrumental || !nameMatches(track, rec.TrackName) {
		return nil, nil
	}

	var items []models.RawItem
	if plain := strings.TrimSpace(rec.PlainLyrics); plain != "" {
		items = append(items, models.RawItem{Data: []byte(plain), Label: "plain", Source: source, Rank: 1})
	}
	if synced := strings.TrimSpace(rec.SyncedLyrics); synced != "" {
		items = append(items, models.RawItem{Data: []byte(synced), Label: "synced", Source: source})
	}
	return items, nil
}
