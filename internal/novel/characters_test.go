package novel

import (
	"context"
	"strings"
	"testing"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/common"
)

// scriptedProvider reports every known name it sees in the window text.
type scriptedProvider struct {
	names []string
	fail  bool
}

func (p *scriptedProvider) Name() constants.Provider { return constants.ProviderMock }

func (p *scriptedProvider) Identify(ctx context.Context, req ai.IdentifyRequest, opts ai.Options) (ai.IdentifyResult, error) {
	return ai.IdentifyResult{}, nil
}

func (p *scriptedProvider) Categorize(ctx context.Context, req ai.CategorizeRequest, opts ai.Options) (ai.CategorizeResult, error) {
	return ai.CategorizeResult{}, nil
}

func (p *scriptedProvider) ExtractCharacters(ctx context.Context, req ai.CharactersRequest, opts ai.Options) (ai.CharactersResult, error) {
	if p.fail {
		return ai.CharactersResult{}, common.Errorf(common.CodeAIUnreachable, "offline")
	}
	var res ai.CharactersResult
	for _, name := range p.names {
		if !strings.Contains(req.Text, name) {
			continue
		}
		finding := ai.CharacterFinding{Name: name}
		if req.Pass == ai.PassEnhance {
			finding.Personality = []string{"determined"}
			for _, other := range req.Prior {
				if other != name && strings.Contains(req.Text, other) {
					finding.RelatedTo = append(finding.RelatedTo, other)
				}
			}
		}
		res.Characters = append(res.Characters, finding)
	}
	return res, nil
}

func novelPages() []string {
	page := func(body string) string { return body }
	return []string{
		page("In the beginning, Alara walked the road with Brom at her side."),
		page("They camped by the river. Alara spoke softly while Brom tended the fire."),
		page("By dawn Alara and Brom had reached the city gates."),
		page("Rumor said the king feared them both; Alara laughed and Brom said nothing."),
		page("Midway. The chapter closed on distant hills."),
	}
}

func TestRunDiscoversAndEnhances(t *testing.T) {
	provider := &scriptedProvider{names: []string{"Alara", "Brom", "Midway"}}
	pass := New(Config{MinPages: 3, WindowPages: 2, OverlapPages: 1}, provider, nil)

	set := pass.Run(context.Background(), novelPages())
	if set.PassFailed {
		t.Fatalf("pass failed: %s", set.FailureNote)
	}
	if len(set.Characters) != 2 {
		t.Fatalf("characters = %d (%+v), want 2", len(set.Characters), set.Characters)
	}
	for _, c := range set.Characters {
		if c.Name == "" {
			t.Error("character with empty surface form")
		}
		if len(c.Pages) < 3 {
			t.Errorf("%s pages = %v, want >= 3", c.Name, c.Pages)
		}
		if len(c.Personality) == 0 {
			t.Errorf("%s not enhanced", c.Name)
		}
	}
	if len(set.Relationships) == 0 {
		t.Error("no relationships recorded")
	}
	for id, related := range set.Relationships {
		for _, rel := range related {
			if rel == id {
				t.Error("self-relationship recorded")
			}
		}
	}
}

// "Midway" appears only at a sentence start and must be filtered.
func TestRunFiltersSentenceStartNames(t *testing.T) {
	provider := &scriptedProvider{names: []string{"Midway"}}
	pass := New(Config{MinPages: 1, WindowPages: 3}, provider, nil)

	set := pass.Run(context.Background(), novelPages())
	if len(set.Characters) != 0 {
		t.Fatalf("characters = %+v, want none", set.Characters)
	}
}

func TestRunRecordsFailureWithoutPropagating(t *testing.T) {
	provider := &scriptedProvider{fail: true}
	pass := New(Config{}, provider, nil)

	set := pass.Run(context.Background(), novelPages())
	if !set.PassFailed {
		t.Fatal("failure not recorded")
	}
	if set.FailureNote == "" {
		t.Fatal("failure note empty")
	}
}
