// file: internal/metadata/coverartarchive.go
// version: 1.0.0
// guid: 1e49be13-3c92-49da-b5e2-a168b33cab6d

package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jdfalk/spit/internal/models"
)

// CoverArtArchiveClient resolves a release through MusicBrainz and returns
// the cover images the Cover Art Archive holds for it.
type CoverArtArchiveClient struct {
	httpClient *http.Client
	baseURL    string
	mb         *MusicBrainzClient
}

// NewCoverArtArchiveClient creates a client for the public Cover Art Archive.
func NewCoverArtArchiveClient(mb *MusicBrainzClient) *CoverArtArchiveClient {
	return NewCoverArtArchiveClientWithBaseURL(baseURLFromEnv("COVERARTARCHIVE_BASE_URL", "https://coverartarchive.org"), mb)
}

// NewCoverArtArchiveClientWithBaseURL creates a client with a custom base URL (for testing).
func NewCoverArtArchiveClientWithBaseURL(baseURL string, mb *MusicBrainzClient) *CoverArtArchiveClient {
	return &CoverArtArchiveClient{
		httpClient: newHTTPClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		mb:         mb,
	}
}

func (c *CoverArtArchiveClient) Name() string { return "coverartarchive" }

func (c *CoverArtArchiveClient) Categories() []models.Category {
	return []models.Category{models.CategoryCoverArt}
}

type caaImage struct {
	Front bool     `json:"front"`
	Back  bool     `json:"back"`
	Types []string `json:"types"`
	Image string   `json:"image"`
}

// Fetch returns front covers first, then any other artwork.
func (c *CoverArtArchiveClient) Fetch(ctx context.Context, q models.Query) ([]models.RawItem, error) {
	if q.Category() != models.CategoryCoverArt {
		return nil, unsupported(c.Name(), q.Category())
	}
	artist, _ := q.Artist()
	album, _ := q.Album()

	release, err := c.mb.findRelease(ctx, artist, album, "")
	if errors.Is(err, errNotFound) || (err == nil && release == nil) {
		return nil, nil
	}
	if err != nil {
		return nil, providerError(c.Name(), "release search", err)
	}

	source := c.baseURL + "/release/" + url.PathEscape(release.ID)
	var resp struct {
		Images []caaImage `json:"images"`
	}
	if err := getJSON(ctx, c.httpClient, source, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, providerError(c.Name(), "images", err)
	}

	items := make([]models.RawItem, 0, len(resp.Images))
	for _, img := range resp.Images {
		if img.Image == "" {
			continue
		}
		item := models.RawItem{
			Data:   []byte(img.Image),
			Label:  strings.ToLower(strings.Join(img.Types, ",")),
			Source: source,
		}
		if img.Front {
			item.Rank = 10
		}
		items = append(items, item)
	}
	return items, nil
}
