// file: internal/metadata/metadata.go
// version: 1.1.0
// guid: 9d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4a

package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// FileTags is the subject read from an audio file, used to fill a query
// from a file on disk.
type FileTags struct {
	Artist string
	Album  string
	Title  string
	Track  int
	// FromFilename is set when the file carried no readable tags.
	FromFilename bool
}

// ReadFileTags reads artist, album and title from an audio file. Files
// without readable tags fall back to their name and parent directories.
func ReadFileTags(filePath string) (FileTags, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return FileTags{}, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	return readFileTags(f, filePath), nil
}

func readFileTags(r io.ReadSeeker, filePath string) FileTags {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return tagsFromFilename(filePath)
	}

	tags := FileTags{
		Artist: strings.TrimSpace(m.AlbumArtist()),
		Album:  strings.TrimSpace(m.Album()),
		Title:  strings.TrimSpace(m.Title()),
	}
	// Track artist beats album artist ("Various Artists" compilations).
	if artist := strings.TrimSpace(m.Artist()); artist != "" {
		tags.Artist = artist
	}
	tags.Track, _ = m.Track()

	if tags.Artist == "" && tags.Album == "" && tags.Title == "" {
		return tagsFromFilename(filePath)
	}
	return tags
}

var (
	leadingTrackNumber = regexp.MustCompile(`^\d{1,3}(\s*[-._]+\s*|\s+)`)
	discPrefix         = regexp.MustCompile(`(?i)^(cd|disc|disk)\s*\d+$`)
)

// tagsFromFilename guesses the subject from a path shaped like
// "Artist/Album/01 - Title.ext" or "Artist - Title.ext".
func tagsFromFilename(filePath string) FileTags {
	tags := FileTags{FromFilename: true}

	name := filepath.Base(filePath)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	if m := leadingTrackNumber.FindString(name); m != "" {
		digits := strings.TrimRight(m, " -._")
		if n, err := strconv.Atoi(strings.TrimSpace(digits)); err == nil {
			tags.Track = n
		}
		name = name[len(m):]
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))

	if artist, title, ok := strings.Cut(name, " - "); ok {
		tags.Artist = strings.TrimSpace(artist)
		tags.Title = strings.TrimSpace(title)
	} else {
		tags.Title = name
	}

	dir := filepath.Dir(filePath)
	if discPrefix.MatchString(filepath.Base(dir)) {
		dir = filepath.Dir(dir)
	}
	if album := directoryName(dir); album != "" {
		tags.Album = album
		if tags.Artist == "" {
			tags.Artist = directoryName(filepath.Dir(dir))
		}
	}
	return tags
}

// directoryName returns the last path element, or "" for roots and the
// current directory.
func directoryName(dir string) string {
	base := filepath.Base(dir)
	switch base {
	case ".", string(filepath.Separator), "":
		return ""
	}
	return strings.TrimSpace(base)
}
