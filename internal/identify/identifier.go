package identify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/isbn"
	"github.com/rpger/content-extractor/internal/model"
	"github.com/rpger/content-extractor/internal/pdf"
)

// Override carries caller-supplied classification fields. Any non-empty
// field replaces the detected value and forces derivation manual_override.
type Override struct {
	Game    string
	Edition string
	Book    string
	Kind    constants.ContentKind
}

func (o Override) empty() bool {
	return o.Game == "" && o.Edition == "" && o.Book == "" && o.Kind == ""
}

// Config bounds the identification text pulls.
type Config struct {
	Pages    int // pages scanned for titles and AI identification, default 15
	MaxChars int // character ceiling for the identification text, default 5000
}

// Identifier produces the classification verdict: explicit-title scan
// first, then the AI provider, then a pure keyword vote as last resort.
type Identifier struct {
	cfg      Config
	catalog  *catalog.Catalog
	provider ai.Provider
	fallback ai.Provider // mock, always present
	logger   *slog.Logger
}

// New builds an identifier. fallback is consulted when provider is
// exhausted; it should be the mock variant.
func New(cfg Config, cat *catalog.Catalog, provider, fallback ai.Provider, logger *slog.Logger) *Identifier {
	if cfg.Pages <= 0 {
		cfg.Pages = 15
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 5000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Identifier{cfg: cfg, catalog: cat, provider: provider, fallback: fallback, logger: logger}
}

// Identify runs the classification protocol over an open document.
func (id *Identifier) Identify(ctx context.Context, doc pdf.Document, kind constants.ContentKind, override Override) (model.Verdict, error) {
	text, truncated, err := doc.FirstPagesText(ctx, id.cfg.Pages, id.cfg.MaxChars)
	if err != nil {
		return model.Verdict{}, common.WrapError(err, "identification text")
	}
	id.logger.Info("identify.start",
		"chars", len(text), "truncated", truncated, "kind", string(kind))

	verdict := id.classify(ctx, text, kind)
	id.attachISBNs(ctx, doc, &verdict)
	id.applyOverride(&verdict, override)

	if verdict.Game == "" {
		return verdict, common.Errorf(common.CodeCatalogMissing, "no game system derived")
	}
	id.logger.Info("identify.ok",
		"game", verdict.Game, "edition", verdict.Edition, "book", verdict.BookCode,
		"derivation", string(verdict.Derivation), "confidence", verdict.Confidence,
	)
	return verdict, nil
}

func (id *Identifier) classify(ctx context.Context, text string, kind constants.ContentKind) model.Verdict {
	// Pass 1: explicit title synonym.
	if ref, ok := id.catalog.LookupTitle(text); ok {
		verdict := model.Verdict{
			Kind:       kind,
			Game:       ref.Game,
			Edition:    ref.Edition,
			BookCode:   ref.Book,
			BookTitle:  ref.Title,
			Confidence: 0.95,
			Rationale:  "explicit title match",
			Derivation: constants.DerivationExplicitTitle,
		}
		if g, found := id.catalog.Game(ref.Game); found {
			verdict.Publisher = g.Publisher
		}
		return verdict
	}

	// Pass 2: AI verdict.
	res, err := id.provider.Identify(ctx, ai.IdentifyRequest{Text: text, Kind: kind}, ai.DefaultOptions(ai.OpIdentify))
	if err == nil {
		return verdictFromResult(res, kind, constants.DerivationAIInference)
	}
	id.logger.Warn("identify.provider_exhausted", "provider", id.provider.Name(), "error", err)

	// Provider exhausted: the mock runs the catalog's keyword and synonym
	// logic, so its verdict is the keyword fallback, capped at 0.6.
	if id.fallback != nil && id.fallback.Name() != id.provider.Name() {
		if res, ferr := id.fallback.Identify(ctx, ai.IdentifyRequest{Text: text, Kind: kind}, ai.DefaultOptions(ai.OpIdentify)); ferr == nil {
			verdict := verdictFromResult(res, kind, constants.DerivationFallbackKeyword)
			if verdict.Confidence > 0.6 {
				verdict.Confidence = 0.6
			}
			return verdict
		}
	}

	// Last resort: a pure keyword vote, same confidence cap.
	game, density := id.catalog.KeywordVote(text)
	confidence := density
	if confidence > 0.6 {
		confidence = 0.6
	}
	verdict := model.Verdict{
		Kind:       kind,
		Game:       game,
		Confidence: confidence,
		Rationale:  "keyword vote fallback",
		Derivation: constants.DerivationFallbackKeyword,
	}
	id.fillFromCatalog(&verdict)
	return verdict
}

// attachISBNs scans the first and last three pages for ISBN patterns and
// attaches both canonical forms when present.
func (id *Identifier) attachISBNs(ctx context.Context, doc pdf.Document, verdict *model.Verdict) {
	pages := doc.PageCount()
	var scan []int
	for i := 1; i <= 3 && i <= pages; i++ {
		scan = append(scan, i)
	}
	for i := pages - 2; i <= pages; i++ {
		if i > 3 && i >= 1 {
			scan = append(scan, i)
		}
	}
	var b strings.Builder
	for _, p := range scan {
		pt, err := doc.PageText(ctx, p)
		if err != nil {
			continue
		}
		b.WriteString(pt.Text)
		b.WriteByte('\n')
	}
	tens, thirteens := isbn.Find(b.String())
	if len(tens) > 0 {
		verdict.ISBN10 = tens[0]
	}
	if len(thirteens) > 0 {
		verdict.ISBN13 = thirteens[0]
	} else if verdict.ISBN10 != "" {
		if canonical, err := isbn.Canonicalize(verdict.ISBN10); err == nil {
			verdict.ISBN13 = canonical
		}
	}
}

func (id *Identifier) applyOverride(verdict *model.Verdict, override Override) {
	if override.empty() {
		return
	}
	if override.Game != "" {
		verdict.Game = override.Game
	}
	if override.Edition != "" {
		verdict.Edition = override.Edition
	}
	if override.Book != "" {
		verdict.BookCode = override.Book
	}
	if override.Kind != "" {
		verdict.Kind = override.Kind
	}
	verdict.Derivation = constants.DerivationManualOverride
	verdict.Confidence = 1.0
	verdict.Rationale = "manual override"
	id.fillFromCatalog(verdict)
}

// fillFromCatalog derives missing edition/book fields from the catalog.
func (id *Identifier) fillFromCatalog(verdict *model.Verdict) {
	if verdict.Edition == "" {
		if editions, err := id.catalog.Editions(verdict.Game); err == nil && len(editions) > 0 {
			verdict.Edition = editions[0]
		}
	}
	if verdict.BookCode == "" {
		if codes, err := id.catalog.BookCodes(verdict.Game, verdict.Edition); err == nil && len(codes) > 0 {
			verdict.BookCode = codes[0]
		}
	}
	if g, ok := id.catalog.Game(verdict.Game); ok {
		if verdict.Publisher == "" {
			verdict.Publisher = g.Publisher
		}
		if verdict.BookTitle == "" {
			verdict.BookTitle = fmt.Sprintf("%s %s", g.Name, strings.ToUpper(verdict.BookCode))
		}
	}
}

func verdictFromResult(res ai.IdentifyResult, kind constants.ContentKind, derivation constants.Derivation) model.Verdict {
	if res.Kind == "" {
		res.Kind = kind
	}
	return model.Verdict{
		Kind:       res.Kind,
		Game:       res.Game,
		Edition:    res.Edition,
		BookCode:   res.BookCode,
		BookTitle:  res.BookTitle,
		Publisher:  res.Publisher,
		Confidence: res.Confidence,
		Rationale:  res.Rationale,
		Derivation: derivation,
	}
}
