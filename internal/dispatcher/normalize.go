// file: internal/dispatcher/normalize.go
// version: 1.0.0
// guid: 7d982330-c227-43f6-b504-e51908023346

package dispatcher

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jdfalk/spit/internal/models"
)

// dedupKey reduces a payload to the form two records are compared in.
func dedupKey(kind models.DataKind, data []byte) string {
	s := strings.TrimSpace(string(data))
	switch kind {
	case models.KindLink:
		return strings.TrimRight(strings.ToLower(s), "/")
	case models.KindName:
		return collapseSpace(cases.Fold().String(unidecode.Unidecode(s)))
	default:
		return collapseSpace(cases.Fold().String(norm.NFC.String(s)))
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isBlank(data []byte) bool {
	return len(strings.TrimSpace(string(data))) == 0
}

// blacklist holds payloads that are never returned, such as the
// placeholder images some shops serve for missing covers.
type blacklist map[string]struct{}

func newBlacklist(kind models.DataKind, entries []string) blacklist {
	bl := make(blacklist, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		bl[dedupKey(kind, []byte(e))] = struct{}{}
	}
	return bl
}

func (b blacklist) contains(key string) bool {
	_, ok := b[key]
	return ok
}
