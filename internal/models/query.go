// file: internal/models/query.go
// version: 1.0.0
// guid: ca8fc7f4-b296-4e19-b81d-c0f45d58562c

package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidQuery is returned when a query cannot be built from its parameters.
var ErrInvalidQuery = errors.New("invalid query")

// QueryParams is the caller-facing input to BuildQuery.
// Artist, Album and Track are optional; nil means "not given".
type QueryParams struct {
	Category     Category `validate:"category"`
	SourceFilter string
	Artist       *string `validate:"required_without_all=Album Track"`
	Album        *string
	Track        *string
	MaxResults   int `validate:"gte=0"`
}

type optional struct {
	value string
	set   bool
}

func optionalFrom(p *string) optional {
	if p == nil {
		return optional{}
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return optional{}
	}
	return optional{value: v, set: true}
}

// Query is a validated, immutable retrieval request.
// The zero Query is not valid; build one with BuildQuery.
type Query struct {
	category   Category
	source     string
	artist     optional
	album      optional
	track      optional
	maxResults int
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().Int()).Valid()
	})
	return v
}

// String returns a pointer to s, for filling optional QueryParams fields.
func String(s string) *string {
	return &s
}

// BuildQuery validates params and returns an immutable Query.
func BuildQuery(params QueryParams) (Query, error) {
	artist := optionalFrom(params.Artist)
	album := optionalFrom(params.Album)
	track := optionalFrom(params.Track)

	// Blank strings count as unset for the presence rules.
	normalized := params
	normalized.Artist, normalized.Album, normalized.Track = nil, nil, nil
	if artist.set {
		normalized.Artist = &artist.value
	}
	if album.set {
		normalized.Album = &album.value
	}
	if track.set {
		normalized.Track = &track.value
	}

	if err := validate.Struct(normalized); err != nil {
		return Query{}, describeValidation(err)
	}

	info := categories[params.Category]
	var missing []string
	if info.requires&needArtist != 0 && !artist.set {
		missing = append(missing, "artist")
	}
	if info.requires&needAlbum != 0 && !album.set {
		missing = append(missing, "album")
	}
	if info.requires&needTrack != 0 && !track.set {
		missing = append(missing, "track")
	}
	if len(missing) > 0 {
		return Query{}, fmt.Errorf("%w: %s requires %s", ErrInvalidQuery, params.Category, strings.Join(missing, " and "))
	}

	return Query{
		category:   params.Category,
		source:     strings.TrimSpace(params.SourceFilter),
		artist:     artist,
		album:      album,
		track:      track,
		maxResults: params.MaxResults,
	}, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "category":
			reasons = append(reasons, "unrecognized category")
		case "required_without_all":
			reasons = append(reasons, "one of artist, album or track must be set")
		case "gte":
			reasons = append(reasons, "max results must not be negative")
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(reasons, "; "))
}

// Valid reports whether q was produced by BuildQuery.
func (q Query) Valid() bool { return q.category.Valid() }

func (q Query) Category() Category   { return q.category }
func (q Query) SourceFilter() string { return q.source }
func (q Query) MaxResults() int      { return q.maxResults }

// Artist returns the artist and whether it was given.
func (q Query) Artist() (string, bool) { return q.artist.value, q.artist.set }

// Album returns the album and whether it was given.
func (q Query) Album() (string, bool) { return q.album.value, q.album.set }

// Track returns the track title and whether it was given.
func (q Query) Track() (string, bool) { return q.track.value, q.track.set }

func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.category.String())
	if q.source != "" {
		fmt.Fprintf(&b, " from=%s", q.source)
	}
	if q.artist.set {
		fmt.Fprintf(&b, " artist=%q", q.artist.value)
	}
	if q.album.set {
		fmt.Fprintf(&b, " album=%q", q.album.value)
	}
	if q.track.set {
		fmt.Fprintf(&b, " track=%q", q.track.value)
	}
	if q.maxResults > 0 {
		fmt.Fprintf(&b, " max=%d", q.maxResults)
	}
	return b.String()
}
