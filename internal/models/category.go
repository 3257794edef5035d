// file: internal/models/category.go
// version: 1.0.0
// guid: fe586e9e-493a-47ff-8fed-0a34ed3b39ff

package models

import (
	"fmt"
	"strings"
)

// Category is the kind of metadata a query asks for.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryRelations
	CategoryCoverArt
	CategoryLyrics
	CategoryArtistBio
	CategorySimilarArtists
	CategorySimilarSongs
	CategoryTracklist
	CategoryAlbumList
	CategoryTags
)

// DataKind selects how result payloads are compared for deduplication.
type DataKind int

const (
	KindLink DataKind = iota // URLs, compared case-insensitively
	KindText                 // free text, compared after unicode folding
	KindName                 // short names (artists, songs, tags)
)

// Subject fields a category can require.
const (
	needArtist = 1 << iota
	needAlbum
	needTrack
)

type categoryInfo struct {
	name     string
	kind     DataKind
	requires int
}

var categories = map[Category]categoryInfo{
	CategoryRelations:      {name: "relations", kind: KindLink, requires: needArtist},
	CategoryCoverArt:       {name: "cover", kind: KindLink, requires: needArtist | needAlbum},
	CategoryLyrics:         {name: "lyrics", kind: KindText, requires: needArtist | needTrack},
	CategoryArtistBio:      {name: "artistbio", kind: KindText, requires: needArtist},
	CategorySimilarArtists: {name: "similarartists", kind: KindName, requires: needArtist},
	CategorySimilarSongs:   {name: "similarsongs", kind: KindName, requires: needArtist | needTrack},
	CategoryTracklist:      {name: "tracklist", kind: KindName, requires: needArtist | needAlbum},
	CategoryAlbumList:      {name: "albumlist", kind: KindName, requires: needArtist},
	CategoryTags:           {name: "tags", kind: KindName, requires: needArtist},
}

// AllCategories lists the recognized categories in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryRelations, CategoryCoverArt, CategoryLyrics, CategoryArtistBio,
		CategorySimilarArtists, CategorySimilarSongs, CategoryTracklist,
		CategoryAlbumList, CategoryTags,
	}
}

// ParseCategory maps a wire name ("relations", "cover", ...) to a Category.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, info := range categories {
		if info.name == name {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, s)
}

// Valid reports whether c is one of the recognized categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (c Category) String() string {
	if info, ok := categories[c]; ok {
		return info.name
	}
	return "unknown"
}

// Kind returns the data kind of results in this category.
func (c Category) Kind() DataKind {
	return categories[c].kind
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (k DataKind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindText:
		return "text"
	case KindName:
		return "name"
	}
	return "unknown"
}
