// Package address derives deterministic collection names and folder paths
// from a classification verdict.
package address

import (
	"strings"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/model"
)

// Address is the derived location for one document's content.
type Address struct {
	// VectorCollection is the vector store collection, e.g. "dnd_1st_phb".
	VectorCollection string
	// DocCollection is the document store collection: the dotted path in the
	// separate layout, "rpger" in single-with-folder.
	DocCollection string
	// Folder is the folder path stored as metadata in the single-with-folder
	// layout; empty otherwise.
	Folder string
}

// Build derives the address for a verdict under the chosen layout. Build is
// pure and idempotent: feeding already-sanitized segments back in yields
// the same address.
func Build(v model.Verdict, layout constants.Layout) Address {
	kind := Sanitize(string(v.Kind))
	game := Sanitize(v.Game)
	edition := Sanitize(v.Edition)
	book := Sanitize(v.BookCode)
	short := Sanitize(v.CollectionName())

	addr := Address{VectorCollection: short}
	switch layout {
	case constants.LayoutSingleWithFolder:
		addr.DocCollection = constants.SingleCollectionName
		addr.Folder = strings.Join([]string{kind, game, edition, book, short}, "/")
	default:
		addr.DocCollection = strings.Join([]string{kind, game, edition, book, short}, ".")
	}
	return addr
}

// Sanitize lowercases a path segment, rewrites ampersands to "and", maps
// whitespace to underscores and strips anything else outside [a-z0-9_].
func Sanitize(segment string) string {
	s := strings.ToLower(segment)
	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	b.Grow(len(s))
	pendingUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			if b.Len() > 0 {
				pendingUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			if pendingUnderscore {
				b.WriteByte('_')
				pendingUnderscore = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
