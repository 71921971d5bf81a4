// Package novel implements the two-pass character discovery and
// enhancement run for novel-kind documents.
package novel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/model"
)

// Config bounds the character pass.
type Config struct {
	MinPages     int // minimum distinct pages a character must appear on, default 3
	WindowPages  int // pages per provider window, default 20
	OverlapPages int // window overlap for context continuity, default 1 (2-5%)
}

// Pass runs discovery and enhancement over the enhanced page texts.
type Pass struct {
	cfg      Config
	provider ai.Provider
	logger   *slog.Logger
}

// New builds a character pass.
func New(cfg Config, provider ai.Provider, logger *slog.Logger) *Pass {
	if cfg.MinPages <= 0 {
		cfg.MinPages = 3
	}
	if cfg.WindowPages <= 0 {
		cfg.WindowPages = 20
	}
	if cfg.OverlapPages <= 0 {
		cfg.OverlapPages = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pass{cfg: cfg, provider: provider, logger: logger}
}

// Run executes both passes. pages[i] is the enhanced text of page i+1.
// Failures never propagate: the returned set records them and the main
// pipeline continues.
func (p *Pass) Run(ctx context.Context, pages []string) *model.CharacterSet {
	set := &model.CharacterSet{Relationships: make(map[string][]string)}

	discovered, err := p.discover(ctx, pages)
	if err != nil {
		p.logger.Warn("novel.discover.failed", "error", err)
		set.PassFailed = true
		set.FailureNote = fmt.Sprintf("discover: %v", err)
		return set
	}
	if len(discovered) == 0 {
		return set
	}

	if err := p.enhance(ctx, pages, discovered, set); err != nil {
		p.logger.Warn("novel.enhance.failed", "error", err)
		set.PassFailed = true
		set.FailureNote = fmt.Sprintf("enhance: %v", err)
	}

	names := make([]string, 0, len(discovered))
	for name := range discovered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set.Characters = append(set.Characters, *discovered[name])
	}
	p.logger.Info("novel.pass.ok", "characters", len(set.Characters), "failed", set.PassFailed)
	return set
}

// discover windows the text through the provider and keeps characters
// mentioned on at least MinPages distinct pages, dropping names that occur
// only at sentence starts.
func (p *Pass) discover(ctx context.Context, pages []string) (map[string]*model.Character, error) {
	candidates := make(map[string]struct{})
	for _, window := range p.windows(pages) {
		res, err := p.provider.ExtractCharacters(ctx, ai.CharactersRequest{
			Text: window.text,
			Pass: ai.PassDiscover,
		}, ai.DefaultOptions(ai.OpCharacters))
		if err != nil {
			return nil, err
		}
		for _, finding := range res.Characters {
			name := strings.TrimSpace(finding.Name)
			if name != "" {
				candidates[name] = struct{}{}
			}
		}
	}

	out := make(map[string]*model.Character)
	id := 0
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mentions := pageMentions(pages, name)
		if len(mentions) < p.cfg.MinPages {
			continue
		}
		if onlySentenceStarts(pages, name) {
			continue
		}
		id++
		out[name] = &model.Character{
			ID:    fmt.Sprintf("char_%03d", id),
			Name:  name,
			Pages: mentions,
		}
	}
	return out, nil
}

// enhance re-scans with the discovered set as prior, accumulating
// relationships, quotes, personality and behavior tags.
func (p *Pass) enhance(ctx context.Context, pages []string, discovered map[string]*model.Character, set *model.CharacterSet) error {
	prior := make([]string, 0, len(discovered))
	for name := range discovered {
		prior = append(prior, name)
	}
	sort.Strings(prior)

	idByName := make(map[string]string, len(discovered))
	for name, c := range discovered {
		idByName[name] = c.ID
	}

	for _, window := range p.windows(pages) {
		res, err := p.provider.ExtractCharacters(ctx, ai.CharactersRequest{
			Text:  window.text,
			Pass:  ai.PassEnhance,
			Prior: prior,
		}, ai.DefaultOptions(ai.OpCharacters))
		if err != nil {
			return err
		}
		for _, finding := range res.Characters {
			c, ok := discovered[finding.Name]
			if !ok {
				continue
			}
			c.Aliases = mergeStrings(c.Aliases, finding.Aliases)
			c.Personality = mergeStrings(c.Personality, finding.Personality)
			c.BehaviorTags = mergeStrings(c.BehaviorTags, finding.BehaviorTags)
			if c.Description == "" {
				c.Description = finding.Description
			}
			for _, q := range finding.Quotes {
				page := window.firstPage + pageOffsetOf(window, q)
				c.Quotes = appendQuote(c.Quotes, model.Quote{Text: q, Page: page})
			}
			for _, rel := range finding.RelatedTo {
				relID, known := idByName[rel]
				if !known || relID == c.ID {
					continue
				}
				set.Relationships[c.ID] = mergeStrings(set.Relationships[c.ID], []string{relID})
			}
		}
	}
	return nil
}

type window struct {
	text      string
	firstPage int // 1-based
	pages     []string
}

// windows slices the pages into overlapping provider-sized chunks.
func (p *Pass) windows(pages []string) []window {
	if len(pages) == 0 {
		return nil
	}
	step := p.cfg.WindowPages - p.cfg.OverlapPages
	if step < 1 {
		step = 1
	}
	var out []window
	for start := 0; start < len(pages); start += step {
		end := start + p.cfg.WindowPages
		if end > len(pages) {
			end = len(pages)
		}
		out = append(out, window{
			text:      strings.Join(pages[start:end], "\n\f\n"),
			firstPage: start + 1,
			pages:     pages[start:end],
		})
		if end == len(pages) {
			break
		}
	}
	return out
}

// pageMentions returns the distinct 1-based pages where name appears.
func pageMentions(pages []string, name string) []int {
	var out []int
	for i, text := range pages {
		if strings.Contains(text, name) {
			out = append(out, i+1)
		}
	}
	return out
}

// onlySentenceStarts reports whether every occurrence of name follows a
// sentence boundary, the usual false-positive shape for capitalized words.
func onlySentenceStarts(pages []string, name string) bool {
	sawAny := false
	for _, text := range pages {
		for idx := strings.Index(text, name); idx >= 0; {
			sawAny = true
			if !startsSentenceAt(text, idx) {
				return false
			}
			next := strings.Index(text[idx+len(name):], name)
			if next < 0 {
				break
			}
			idx = idx + len(name) + next
		}
	}
	return sawAny
}

func startsSentenceAt(text string, idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\n', '\t', '"':
			continue
		case '.', '!', '?':
			return true
		default:
			return false
		}
	}
	return true // start of text
}

// pageOffsetOf locates a quote within a window's pages.
func pageOffsetOf(w window, quote string) int {
	for i, page := range w.pages {
		if strings.Contains(page, quote) {
			return i
		}
	}
	return 0
}

func mergeStrings(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, s := range extra {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; !dup {
			existing = append(existing, s)
			seen[s] = struct{}{}
		}
	}
	return existing
}

func appendQuote(quotes []model.Quote, q model.Quote) []model.Quote {
	for _, existing := range quotes {
		if existing.Text == q.Text {
			return quotes
		}
	}
	return append(quotes, q)
}
