package ai

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
)

func TestMockIdentifyDeterministic(t *testing.T) {
	m := NewMock(catalog.New())
	req := IdentifyRequest{
		Text: "The Dungeon Master consults armor class, hit dice, saving throw and THAC0 tables.",
		Kind: constants.KindSourceMaterial,
	}
	opts := DefaultOptions(OpIdentify)

	first, err := m.Identify(context.Background(), req, opts)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	second, err := m.Identify(context.Background(), req, opts)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("mock not deterministic:\n%+v\n%+v", first, second)
	}
	if first.Game != "dnd" {
		t.Errorf("game = %q, want dnd", first.Game)
	}
	if first.Confidence <= 0 {
		t.Errorf("confidence = %v, want > 0", first.Confidence)
	}
}

func TestMockIdentifyTitleSynonym(t *testing.T) {
	m := NewMock(catalog.New())
	res, err := m.Identify(context.Background(), IdentifyRequest{
		Text: "Advanced Dungeons & Dragons\nPlayer's Handbook",
		Kind: constants.KindSourceMaterial,
	}, DefaultOptions(OpIdentify))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if res.Game != "dnd" || res.BookCode != "phb" || res.Edition != "1st" {
		t.Fatalf("verdict = %+v", res)
	}
	if res.Confidence < 0.8 {
		t.Errorf("confidence = %v, want >= 0.8", res.Confidence)
	}
}

func TestMockCategorize(t *testing.T) {
	m := NewMock(catalog.New())
	allowed := catalog.New().Categories("dnd", constants.KindSourceMaterial)

	res, err := m.Categorize(context.Background(), CategorizeRequest{
		Text:    "The attack roll is compared to armor class; on a hit, roll weapon damage.",
		Game:    "dnd",
		Edition: "1st",
		Allowed: allowed,
	}, DefaultOptions(OpCategorize))
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if res.Category != "Combat" {
		t.Errorf("category = %q, want Combat", res.Category)
	}

	res, err = m.Categorize(context.Background(), CategorizeRequest{
		Text:    "zzz qqq unrelated tokens",
		Allowed: allowed,
	}, DefaultOptions(OpCategorize))
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if res.Category != constants.Uncategorized || res.Confidence != 0 {
		t.Errorf("fallback = %+v, want Uncategorized at 0", res)
	}
}

func TestCachedProviderHitsOnce(t *testing.T) {
	inner := &countingProvider{}
	c, err := newCached(inner, 16)
	if err != nil {
		t.Fatalf("newCached: %v", err)
	}
	req := IdentifyRequest{Text: "same text", Kind: constants.KindNovel}
	opts := DefaultOptions(OpIdentify)

	for i := 0; i < 3; i++ {
		if _, err := c.Identify(context.Background(), req, opts); err != nil {
			t.Fatalf("Identify: %v", err)
		}
	}
	if inner.identifyCalls != 1 {
		t.Errorf("backend calls = %d, want 1", inner.identifyCalls)
	}

	// A different text misses.
	if _, err := c.Identify(context.Background(), IdentifyRequest{Text: "other"}, opts); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if inner.identifyCalls != 2 {
		t.Errorf("backend calls = %d, want 2", inner.identifyCalls)
	}

	// Cache off always calls through.
	opts.Cache = false
	for i := 0; i < 2; i++ {
		if _, err := c.Identify(context.Background(), req, opts); err != nil {
			t.Fatalf("Identify: %v", err)
		}
	}
	if inner.identifyCalls != 4 {
		t.Errorf("backend calls = %d, want 4", inner.identifyCalls)
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{fail: true}
	c, _ := newCached(inner, 16)
	opts := DefaultOptions(OpIdentify)
	req := IdentifyRequest{Text: "x"}
	for i := 0; i < 2; i++ {
		if _, err := c.Identify(context.Background(), req, opts); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.identifyCalls != 2 {
		t.Errorf("backend calls = %d, want 2", inner.identifyCalls)
	}
}

func TestOptionsNormalized(t *testing.T) {
	o := Options{Temperature: 2, MaxTokens: 10, Timeout: 0, Retries: -1}.normalized(OpIdentify)
	if o.Temperature != 1 {
		t.Errorf("temperature = %v", o.Temperature)
	}
	if o.MaxTokens != 4000 {
		t.Errorf("max tokens = %v", o.MaxTokens)
	}
	if o.Retries != 0 {
		t.Errorf("retries = %v", o.Retries)
	}
	if o.Timeout < DefaultOptions(OpIdentify).Timeout {
		t.Errorf("timeout = %v", o.Timeout)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := string(extractJSON(tt.in)); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFactoryAlwaysResolvesMock(t *testing.T) {
	f := NewFactory(common.AIConfig{CacheSize: 8}, catalog.New(), nil)
	p := f.Provider(constants.Provider("nonsense"))
	if p.Name() != constants.ProviderMock {
		t.Fatalf("provider = %s, want mock", p.Name())
	}
}

type countingProvider struct {
	identifyCalls int
	fail          bool
}

func (p *countingProvider) Name() constants.Provider { return constants.ProviderMock }

func (p *countingProvider) Identify(ctx context.Context, req IdentifyRequest, opts Options) (IdentifyResult, error) {
	p.identifyCalls++
	if p.fail {
		return IdentifyResult{}, errors.New("boom")
	}
	return IdentifyResult{Game: "generic", Kind: req.Kind, Confidence: 0.5}, nil
}

func (p *countingProvider) Categorize(ctx context.Context, req CategorizeRequest, opts Options) (CategorizeResult, error) {
	return CategorizeResult{Category: constants.Uncategorized}, nil
}

func (p *countingProvider) ExtractCharacters(ctx context.Context, req CharactersRequest, opts Options) (CharactersResult, error) {
	return CharactersResult{}, nil
}
