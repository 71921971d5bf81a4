package ai

import (
	"context"

	"github.com/rpger/content-extractor/constants"
)

// IdentifyRequest asks a provider to classify a document from its opening
// pages.
type IdentifyRequest struct {
	Text string
	Kind constants.ContentKind
}

// IdentifyResult is the provider's partial verdict; derivation and ISBN
// fields are attached downstream by the identifier.
type IdentifyResult struct {
	Kind       constants.ContentKind `json:"kind"`
	Game       string                `json:"game"`
	Edition    string                `json:"edition"`
	BookCode   string                `json:"book_code"`
	BookTitle  string                `json:"book_title"`
	Publisher  string                `json:"publisher,omitempty"`
	Confidence float64               `json:"confidence"`
	Rationale  string                `json:"rationale,omitempty"`
}

// CategorizeRequest asks for a category verdict on one section.
type CategorizeRequest struct {
	Text    string
	Game    string
	Edition string
	Allowed []string
}

// CategorizeResult is the provider's category verdict.
type CategorizeResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// CharacterPass selects the novel-pass phase.
type CharacterPass string

const (
	PassDiscover CharacterPass = "discover"
	PassEnhance  CharacterPass = "enhance"
)

// CharacterFinding is one character as reported by a provider.
type CharacterFinding struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases,omitempty"`
	Personality  []string `json:"personality,omitempty"`
	BehaviorTags []string `json:"behavior_tags,omitempty"`
	Description  string   `json:"description,omitempty"`
	RelatedTo    []string `json:"related_to,omitempty"`
	Quotes       []string `json:"quotes,omitempty"`
}

// CharactersRequest asks for character discovery or enhancement over a
// text window. Prior carries the discovered set during the enhance pass.
type CharactersRequest struct {
	Text  string
	Pass  CharacterPass
	Prior []string
}

// CharactersResult is the provider's character set for one window.
type CharactersResult struct {
	Characters []CharacterFinding `json:"characters"`
}

// Provider is the single AI capability. All variants produce structurally
// identical outputs; malformed provider output surfaces as ai_malformed.
type Provider interface {
	Name() constants.Provider
	Identify(ctx context.Context, req IdentifyRequest, opts Options) (IdentifyResult, error)
	Categorize(ctx context.Context, req CategorizeRequest, opts Options) (CategorizeResult, error)
	ExtractCharacters(ctx context.Context, req CharactersRequest, opts Options) (CharactersResult, error)
}
