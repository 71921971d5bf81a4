package model

import "github.com/rpger/content-extractor/constants"

// Verdict is the classification output consumed by all downstream stages.
type Verdict struct {
	Kind       constants.ContentKind `json:"kind"`
	Game       string                `json:"game"`
	Edition    string                `json:"edition"`
	BookCode   string                `json:"book_code"`
	BookTitle  string                `json:"book_title"`
	Publisher  string                `json:"publisher,omitempty"`
	ISBN10     string                `json:"isbn_10,omitempty"`
	ISBN13     string                `json:"isbn_13,omitempty"`
	Confidence float64               `json:"confidence"`
	Rationale  string                `json:"rationale,omitempty"`
	Derivation constants.Derivation  `json:"derivation"`

	// Extra is the only open field; everything above is closed schema.
	Extra map[string]any `json:"extra,omitempty"`
}

// CollectionName is the short display name for the work, used as the last
// path segment of collection addresses.
func (v Verdict) CollectionName() string {
	return v.Game + "_" + v.Edition + "_" + v.BookCode
}
