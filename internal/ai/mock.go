package ai

import (
	"context"
	"sort"
	"strings"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/catalog"
)

// Mock is the deterministic provider variant. It runs the catalog's
// keyword and title-synonym logic and synthesizes verdicts with confidence
// equal to the keyword hit density, raised to at least 0.8 on a
// title-synonym match. It is always registered and serves as
// the last-resort fallback.
type Mock struct {
	catalog *catalog.Catalog
}

// NewMock builds the mock provider over a catalog.
func NewMock(cat *catalog.Catalog) *Mock {
	if cat == nil {
		cat = catalog.New()
	}
	return &Mock{catalog: cat}
}

func (m *Mock) Name() constants.Provider { return constants.ProviderMock }

func (m *Mock) Identify(ctx context.Context, req IdentifyRequest, opts Options) (IdentifyResult, error) {
	game, density := m.catalog.KeywordVote(req.Text)

	res := IdentifyResult{
		Kind:       req.Kind,
		Game:       game,
		Confidence: density,
		Rationale:  "keyword density vote",
	}
	if ref, ok := m.catalog.LookupTitle(req.Text); ok {
		res.Game = ref.Game
		res.Edition = ref.Edition
		res.BookCode = ref.Book
		res.BookTitle = ref.Title
		if res.Confidence < 0.8 {
			res.Confidence = 0.8
		}
		res.Rationale = "title synonym match"
	}
	if res.Edition == "" {
		if editions, err := m.catalog.Editions(res.Game); err == nil && len(editions) > 0 {
			res.Edition = editions[0]
		}
	}
	if res.BookCode == "" {
		if codes, err := m.catalog.BookCodes(res.Game, res.Edition); err == nil && len(codes) > 0 {
			res.BookCode = codes[0]
		}
	}
	if g, ok := m.catalog.Game(res.Game); ok {
		res.Publisher = g.Publisher
		if res.BookTitle == "" {
			res.BookTitle = g.Name + " " + strings.ToUpper(res.BookCode)
		}
	}
	return res, nil
}

// categoryCues drive the mock categorizer; matched cue count sets the
// confidence.
var categoryCues = map[string][]string{
	"Combat":            {"attack", "damage", "initiative", "armor class", "weapon", "melee", "combat", "hit points"},
	"Magic":             {"spell", "cast", "arcane", "magic", "scroll", "ritual", "caster"},
	"Character":         {"class", "race", "ability score", "character", "background", "alignment"},
	"Equipment":         {"cost", "weight", "gear", "equipment", "gp", "item"},
	"Skills":            {"skill", "proficiency", "check"},
	"Rules":             {"rule", "modifier", "roll", "round", "turn"},
	"Tables":            {"table", "d100", "d20", "column", "row"},
	"Lore":              {"history", "legend", "ancient", "kingdom", "lore"},
	"NPCs":              {"npc", "villager", "merchant"},
	"Adventures":        {"adventure", "quest", "dungeon", "encounter"},
	"Sanity":            {"sanity", "madness"},
	"Investigation":     {"clue", "investigate", "investigator"},
	"Matrix":            {"matrix", "decker", "host"},
	"Cyberware":         {"cyberware", "chrome", "implant"},
	"Chapter/Section":   {"chapter", "part one", "part two", "prologue", "epilogue"},
	"Dialogue":          {"\"", "said", "asked", "replied"},
	"Description":       {"the room", "the air", "looked", "appeared"},
	"Action":            {"ran", "jumped", "grabbed", "struck", "fled"},
	"Internal Monologue": {"thought", "wondered", "knew that", "felt that"},
	"Narrative":         {"later", "meanwhile", "that night", "the next day"},
}

func (m *Mock) Categorize(ctx context.Context, req CategorizeRequest, opts Options) (CategorizeResult, error) {
	lower := strings.ToLower(req.Text)
	best := ""
	bestHits := 0
	for _, category := range req.Allowed {
		hits := 0
		for _, cue := range categoryCues[category] {
			hits += strings.Count(lower, cue)
		}
		if hits > bestHits {
			best, bestHits = category, hits
		}
	}
	if best == "" {
		return CategorizeResult{Category: constants.Uncategorized, Confidence: 0, Rationale: "no cue matched"}, nil
	}
	confidence := 0.5 + 0.05*float64(bestHits)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return CategorizeResult{Category: best, Confidence: confidence, Rationale: "cue count"}, nil
}

func (m *Mock) ExtractCharacters(ctx context.Context, req CharactersRequest, opts Options) (CharactersResult, error) {
	names := properNameCounts(req.Text)

	if req.Pass == PassEnhance {
		return m.enhanceCharacters(req, names), nil
	}

	ordered := make([]string, 0, len(names))
	for name, count := range names {
		if count >= 2 {
			ordered = append(ordered, name)
		}
	}
	sort.Strings(ordered)
	out := CharactersResult{}
	for _, name := range ordered {
		out.Characters = append(out.Characters, CharacterFinding{Name: name})
	}
	return out, nil
}

func (m *Mock) enhanceCharacters(req CharactersRequest, names map[string]int) CharactersResult {
	out := CharactersResult{}
	prior := append([]string(nil), req.Prior...)
	sort.Strings(prior)
	for _, name := range prior {
		finding := CharacterFinding{Name: name}
		// Relationships: other known characters present in the same window.
		for _, other := range prior {
			if other != name && names[other] > 0 && names[name] > 0 {
				finding.RelatedTo = append(finding.RelatedTo, other)
			}
		}
		for _, q := range quotesNear(req.Text, name) {
			finding.Quotes = append(finding.Quotes, q)
		}
		if names[name] > 0 {
			finding.BehaviorTags = []string{"recurring"}
		}
		out.Characters = append(out.Characters, finding)
	}
	return out
}

// properNameCounts counts capitalized tokens that are not sentence starts.
func properNameCounts(text string) map[string]int {
	counts := make(map[string]int)
	fields := strings.Fields(text)
	for i, f := range fields {
		word := strings.Trim(f, `.,;:!?"'()`)
		if len(word) < 3 || word[0] < 'A' || word[0] > 'Z' {
			continue
		}
		rest := word[1:]
		if strings.ToLower(rest) != rest {
			continue // ALLCAPS headings are not names
		}
		sentenceStart := i == 0 || strings.ContainsAny(fields[i-1], ".!?")
		if sentenceStart {
			continue
		}
		counts[word]++
	}
	return counts
}

// quotesNear returns quoted spans from sentences that mention name.
func quotesNear(text, name string) []string {
	var quotes []string
	for _, sentence := range strings.Split(text, ".") {
		if !strings.Contains(sentence, name) {
			continue
		}
		start := strings.IndexByte(sentence, '"')
		if start < 0 {
			continue
		}
		end := strings.IndexByte(sentence[start+1:], '"')
		if end <= 0 {
			continue
		}
		quotes = append(quotes, sentence[start+1:start+1+end])
	}
	return quotes
}

var _ Provider = (*Mock)(nil)
