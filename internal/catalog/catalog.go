package catalog

import (
	"strings"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/common"
)

// BookRef is a (game, edition, book) triple resolved from a title synonym.
type BookRef struct {
	Game    string
	Edition string
	Book    string
	Title   string
}

// Keyword is a detection keyword with its vote weight.
type Keyword struct {
	Term   string
	Weight float64
}

// Game describes one supported game system.
type Game struct {
	ID         string
	Name       string
	Publisher  string
	Editions   []string
	Books      map[string][]string // edition -> book codes
	Keywords   []Keyword
	Categories []string // source-material taxonomy, ordered
	Protected  []string // jargon the enhancer must not "correct"
}

// Catalog is the static registry of supported game systems. It is built
// once at startup and is safe for concurrent reads.
type Catalog struct {
	games    map[string]*Game
	ordered  []string
	synonyms map[string]BookRef // normalized title fragment -> ref
	novelCat []string
}

// New builds the built-in catalog.
func New() *Catalog {
	c := &Catalog{
		games:    make(map[string]*Game),
		synonyms: make(map[string]BookRef),
		novelCat: novelCategories,
	}
	for i := range builtinGames {
		g := &builtinGames[i]
		c.games[g.ID] = g
		c.ordered = append(c.ordered, g.ID)
	}
	for frag, ref := range builtinSynonyms {
		c.synonyms[NormalizeTitle(frag)] = ref
	}
	return c
}

// Games returns the game identifiers in registration order.
func (c *Catalog) Games() []string {
	out := make([]string, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Game returns a game by id.
func (c *Catalog) Game(id string) (*Game, bool) {
	g, ok := c.games[id]
	return g, ok
}

// Editions returns the known editions for a game, oldest first.
func (c *Catalog) Editions(gameID string) ([]string, error) {
	g, ok := c.games[gameID]
	if !ok {
		return nil, common.Errorf(common.CodeCatalogMissing, "unknown game %q", gameID)
	}
	out := make([]string, len(g.Editions))
	copy(out, g.Editions)
	return out, nil
}

// BookCodes returns the book codes for a game edition. When the edition is
// unknown and no fallback can be derived, it fails with catalog_missing.
func (c *Catalog) BookCodes(gameID, edition string) ([]string, error) {
	g, ok := c.games[gameID]
	if !ok {
		return nil, common.Errorf(common.CodeCatalogMissing, "unknown game %q", gameID)
	}
	if codes, ok := g.Books[edition]; ok {
		out := make([]string, len(codes))
		copy(out, codes)
		return out, nil
	}
	// Fallback: the game's first edition, when it has one.
	if len(g.Editions) > 0 {
		if codes, ok := g.Books[g.Editions[0]]; ok {
			out := make([]string, len(codes))
			copy(out, codes)
			return out, nil
		}
	}
	return nil, common.Errorf(common.CodeCatalogMissing, "no books for game %q edition %q", gameID, edition)
}

// Keywords returns the weighted detection keywords for a game.
func (c *Catalog) Keywords(gameID string) []Keyword {
	g, ok := c.games[gameID]
	if !ok {
		return nil
	}
	out := make([]Keyword, len(g.Keywords))
	copy(out, g.Keywords)
	return out
}

// Categories returns the ordered category taxonomy for a game and content
// kind. Novels share one taxonomy across games.
func (c *Catalog) Categories(gameID string, kind constants.ContentKind) []string {
	if kind == constants.KindNovel {
		out := make([]string, len(c.novelCat))
		copy(out, c.novelCat)
		return out
	}
	g, ok := c.games[gameID]
	if !ok {
		g = c.games["generic"]
	}
	out := make([]string, len(g.Categories))
	copy(out, g.Categories)
	return out
}

// ProtectedTerms returns game jargon the enhancer must leave alone. With an
// empty gameID the union across all games is returned.
func (c *Catalog) ProtectedTerms(gameID string) []string {
	if g, ok := c.games[gameID]; ok {
		out := make([]string, len(g.Protected))
		copy(out, g.Protected)
		return out
	}
	var out []string
	for _, id := range c.ordered {
		out = append(out, c.games[id].Protected...)
	}
	return out
}

// LookupTitle scans normalized text for a known book-title synonym and
// returns its catalog reference. When several synonyms match, the longest
// fragment wins, so the result does not depend on map iteration order.
func (c *Catalog) LookupTitle(text string) (BookRef, bool) {
	normalized := NormalizeTitle(text)
	bestFrag := ""
	var best BookRef
	for frag, ref := range c.synonyms {
		if !strings.Contains(normalized, frag) {
			continue
		}
		if len(frag) > len(bestFrag) || (len(frag) == len(bestFrag) && frag < bestFrag) {
			bestFrag, best = frag, ref
		}
	}
	return best, bestFrag != ""
}

// KeywordVote votes each game's keywords against the text and returns the
// winning game with the keyword hit density in [0,1]. Density is the
// weighted fraction of the winner's keywords present in the text.
func (c *Catalog) KeywordVote(text string) (gameID string, density float64) {
	lower := strings.ToLower(text)
	best := ""
	bestScore, bestTotal := 0.0, 0.0
	for _, id := range c.ordered {
		g := c.games[id]
		if len(g.Keywords) == 0 {
			continue
		}
		score, total := 0.0, 0.0
		for _, kw := range g.Keywords {
			total += kw.Weight
			if strings.Contains(lower, kw.Term) {
				score += kw.Weight
			}
		}
		if score > bestScore {
			best, bestScore, bestTotal = id, score, total
		}
	}
	if best == "" || bestTotal == 0 {
		return "generic", 0
	}
	return best, bestScore / bestTotal
}

// NormalizeTitle case-folds and collapses whitespace for synonym matching.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
