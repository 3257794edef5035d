// file: internal/metadata/names.go
// version: 1.0.0
// guid: 0d819f3c-d292-49e3-8d11-ac716277112c

package metadata

import (
	"strings"

	"github.com/gosimple/unidecode"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// foldName reduces a name to lowercase ASCII with single spaces, so that
// "Mötley  Crüe" and "motley crue" compare equal.
func foldName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(s))), " ")
}

// nameMatches reports whether an upstream name is close enough to the one
// the caller asked for. Search APIs always return their best guess, even for
// nonsense input, so every hit is checked before it is trusted.
func nameMatches(want, got string) bool {
	a, b := foldName(want), foldName(got)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	rank := fuzzy.RankMatchNormalizedFold(a, b)
	if rank < 0 {
		return false
	}
	return rank <= max(2, len(b)/5)
}
