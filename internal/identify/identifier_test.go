package identify

import (
	"context"
	"strings"
	"testing"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/model"
	"github.com/rpger/content-extractor/internal/pdf"
)

// fakeDoc serves fixed page texts.
type fakeDoc struct {
	pages []string
}

func (d *fakeDoc) Metadata() pdf.Metadata { return pdf.Metadata{PageCount: len(d.pages)} }
func (d *fakeDoc) PageCount() int         { return len(d.pages) }

func (d *fakeDoc) PageText(ctx context.Context, i int) (pdf.PageText, error) {
	if i < 1 || i > len(d.pages) {
		return pdf.PageText{}, common.Errorf(common.CodePageFailed, "page %d", i)
	}
	return pdf.PageText{Text: d.pages[i-1]}, nil
}

func (d *fakeDoc) PageTables(ctx context.Context, i int) ([]model.Table, error) {
	return nil, nil
}

func (d *fakeDoc) FirstPagesText(ctx context.Context, n, maxChars int) (string, bool, error) {
	if n > len(d.pages) {
		n = len(d.pages)
	}
	joined := strings.Join(d.pages[:n], "\n\f\n")
	if maxChars > 0 && len(joined) > maxChars {
		return joined[:maxChars], true, nil
	}
	return joined, false, nil
}

func (d *fakeDoc) Close() error { return nil }

type failingProvider struct{}

func (failingProvider) Name() constants.Provider { return constants.ProviderCloudA }

func (failingProvider) Identify(ctx context.Context, req ai.IdentifyRequest, opts ai.Options) (ai.IdentifyResult, error) {
	return ai.IdentifyResult{}, common.Errorf(common.CodeAIUnreachable, "offline")
}

func (failingProvider) Categorize(ctx context.Context, req ai.CategorizeRequest, opts ai.Options) (ai.CategorizeResult, error) {
	return ai.CategorizeResult{}, common.Errorf(common.CodeAIUnreachable, "offline")
}

func (failingProvider) ExtractCharacters(ctx context.Context, req ai.CharactersRequest, opts ai.Options) (ai.CharactersResult, error) {
	return ai.CharactersResult{}, common.Errorf(common.CodeAIUnreachable, "offline")
}

func TestIdentifyExplicitTitle(t *testing.T) {
	cat := catalog.New()
	id := New(Config{}, cat, ai.NewMock(cat), nil, nil)
	doc := &fakeDoc{pages: []string{
		"Advanced Dungeons & Dragons\nPLAYER'S HANDBOOK\nGary Gygax",
		"ISBN 0-306-40615-2",
		"table of contents",
	}}

	v, err := id.Identify(context.Background(), doc, constants.KindSourceMaterial, Override{})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if v.Derivation != constants.DerivationExplicitTitle {
		t.Errorf("derivation = %s, want explicit_title", v.Derivation)
	}
	if v.Confidence < 0.95 {
		t.Errorf("confidence = %v, want >= 0.95", v.Confidence)
	}
	if v.Game != "dnd" || v.Edition != "1st" || v.BookCode != "phb" {
		t.Errorf("verdict = %+v", v)
	}
	if v.ISBN13 != "9780306406157" {
		t.Errorf("isbn13 = %q, want canonical form", v.ISBN13)
	}
	if v.ISBN10 != "0306406152" {
		t.Errorf("isbn10 = %q", v.ISBN10)
	}
}

func TestIdentifyFallbackKeyword(t *testing.T) {
	cat := catalog.New()
	id := New(Config{}, cat, failingProvider{}, nil, nil)
	doc := &fakeDoc{pages: []string{
		"The dungeon master tracks armor class, hit dice and saving throw values for the party.",
	}}

	v, err := id.Identify(context.Background(), doc, constants.KindSourceMaterial, Override{})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if v.Derivation != constants.DerivationFallbackKeyword {
		t.Errorf("derivation = %s, want fallback_keyword", v.Derivation)
	}
	if v.Confidence > 0.6 {
		t.Errorf("confidence = %v, want <= 0.6", v.Confidence)
	}
	if v.Game != "dnd" {
		t.Errorf("game = %q", v.Game)
	}
}

func TestIdentifyFallbackUsesMock(t *testing.T) {
	cat := catalog.New()
	id := New(Config{}, cat, failingProvider{}, ai.NewMock(cat), nil)
	doc := &fakeDoc{pages: []string{
		"The dungeon master tracks armor class and hit dice.",
	}}
	v, err := id.Identify(context.Background(), doc, constants.KindSourceMaterial, Override{})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if v.Derivation != constants.DerivationFallbackKeyword {
		t.Errorf("derivation = %s, want fallback_keyword via mock", v.Derivation)
	}
	if v.Confidence > 0.6 {
		t.Errorf("confidence = %v, want capped at 0.6", v.Confidence)
	}
	if v.Game != "dnd" {
		t.Errorf("game = %q", v.Game)
	}
}

func TestIdentifyManualOverride(t *testing.T) {
	cat := catalog.New()
	id := New(Config{}, cat, ai.NewMock(cat), nil, nil)
	doc := &fakeDoc{pages: []string{"unremarkable text"}}

	v, err := id.Identify(context.Background(), doc, constants.KindSourceMaterial, Override{
		Game:    "pathfinder",
		Edition: "2nd",
		Book:    "crb",
		Kind:    constants.KindSourceMaterial,
	})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if v.Derivation != constants.DerivationManualOverride {
		t.Errorf("derivation = %s", v.Derivation)
	}
	if v.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", v.Confidence)
	}
	if v.Game != "pathfinder" || v.Edition != "2nd" || v.BookCode != "crb" {
		t.Errorf("verdict = %+v", v)
	}
}
