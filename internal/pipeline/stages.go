package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/confidence"
	"github.com/rpger/content-extractor/internal/enhance"
	"github.com/rpger/content-extractor/internal/model"
	"github.com/rpger/content-extractor/internal/novel"
	"github.com/rpger/content-extractor/internal/registry"
)

// pageData accumulates per-page state across the stages.
type pageData struct {
	page     int
	raw      string
	enhanced string
	ocrUsed  bool
	ocrConf  float64
	tables   []model.Table
	failed   bool
	failNote string

	before, after float64
	corrections   map[string]int
	enhFailed     bool
}

// run drives an identified session through dedup, extraction, enhancement,
// categorization, scoring, the optional novel pass and persistence.
func (o *Orchestrator) run(ctx context.Context, s *Session, opts ExtractOptions) error {
	s.mu.Lock()
	verdict := *s.verdict
	blob, name := s.docBytes, s.docName
	s.mu.Unlock()

	if o.observeCancel(s) {
		return common.Errorf(common.CodeCancelled, "session %s cancelled", s.ID)
	}

	// Dedup check against the previously-ingested-works registry.
	_ = s.advance(constants.StageDedupCheck, 0, "")
	if err := o.dedupCheck(ctx, s, verdict); err != nil {
		return err
	}
	s.progress(100, "")

	doc, err := o.deps.Opener.Open(ctx, blob, name)
	if err != nil {
		o.rollbackTentative(s)
		s.fail(constants.StageFailedExtraction, err)
		s.release()
		return err
	}
	defer doc.Close()
	pageCount := doc.PageCount()
	pages := make([]pageData, pageCount+1)

	// Stage: extracting.
	_ = s.advance(constants.StageExtracting, 0, "")
	var done atomic.Int64
	ok := o.runPool(s, pageCount, func(p int) {
		pd := pageData{page: p}
		pt, err := doc.PageText(ctx, p)
		if err != nil {
			pd.failed = true
			pd.failNote = common.CodeOf(err)
			o.logger.Warn("pipeline.page.failed", "session", s.ID, "page", p, "error", err)
		} else {
			pd.raw = pt.Text
			pd.ocrUsed = pt.OCRUsed
			pd.ocrConf = pt.OCRConfidence
			if tables, terr := doc.PageTables(ctx, p); terr == nil {
				pd.tables = tables
			}
		}
		pages[p] = pd
		s.progress(int(100*done.Add(1)/int64(pageCount)), "")
	})
	if !ok {
		return o.terminalCancel(s)
	}
	failedPages := 0
	for p := 1; p <= pageCount; p++ {
		if pages[p].failed {
			failedPages++
		}
	}
	if failedPages == pageCount {
		err := common.Errorf(common.CodePageFailed, "no page yielded text")
		o.rollbackTentative(s)
		s.fail(constants.StageFailedExtraction, err)
		s.release()
		return err
	}

	// Stage: enhancing. A per-page enhancer panic emits the raw text
	// unchanged and is recorded in metrics.
	_ = s.advance(constants.StageEnhancing, 0, string(opts.Enhance))
	enhancer := enhance.New(opts.Enhance, o.deps.Catalog.ProtectedTerms(verdict.Game), o.logger)
	done.Store(0)
	ok = o.runPool(s, pageCount, func(p int) {
		defer func() {
			if rec := recover(); rec != nil {
				pages[p].enhanced = pages[p].raw
				pages[p].enhFailed = true
				o.logger.Error("pipeline.enhance.panic", "session", s.ID, "page", p, "panic", rec)
			}
			s.progress(int(100*done.Add(1)/int64(pageCount)), "")
		}()
		if pages[p].failed {
			return
		}
		res := enhancer.Enhance(pages[p].raw)
		pages[p].enhanced = res.Text
		pages[p].before = res.BeforeScore
		pages[p].after = res.AfterScore
		pages[p].corrections = res.Corrections
	})
	if !ok {
		return o.terminalCancel(s)
	}

	// Stage: categorizing. Exhausted categorization degrades to
	// Uncategorized at confidence 0 and never fails the run. The reorder
	// buffer keeps the section list in (page, ordinal) order however the
	// workers finish.
	_ = s.advance(constants.StageCategorizing, 0, "")
	provider := o.deps.Providers.Provider(opts.Provider)
	allowed := o.deps.Catalog.Categories(verdict.Game, verdict.Kind)

	type pageSections struct {
		page     int
		sections []model.Section
	}
	results := make(chan pageSections, pageCount)
	var ordered []model.Section
	var collectorWG sync.WaitGroup
	collectorWG.Add(1)
	go func() {
		defer collectorWG.Done()
		buf := newReorderBuffer(1, pageCount)
		for ps := range results {
			ordered = append(ordered, buf.add(ps.page, ps.sections)...)
		}
	}()

	done.Store(0)
	ok = o.runPool(s, pageCount, func(p int) {
		defer s.progress(int(100*done.Add(1)/int64(pageCount)), "")
		pd := pages[p]
		if pd.failed || pd.enhanced == "" && pd.raw == "" {
			results <- pageSections{page: p}
			return
		}
		section := model.Section{
			Page:          p,
			Ordinal:       0,
			RawText:       pd.raw,
			EnhancedText:  pd.enhanced,
			HasTable:      len(pd.tables) > 0,
			Tables:        pd.tables,
			OCRUsed:       pd.ocrUsed,
			OCRConfidence: pd.ocrConf,
		}
		text := section.EnhancedText
		if text == "" {
			text = section.RawText
		}
		catRes, err := provider.Categorize(ctx, categorizeRequest(text, verdict, allowed), categorizeOptions())
		if err != nil {
			o.logger.Warn("pipeline.categorize.degraded", "session", s.ID, "page", p, "error", err)
			section.Category = constants.Uncategorized
			section.CategoryConfidence = 0
		} else {
			section.Category = catRes.Category
			section.CategoryConfidence = catRes.Confidence
		}
		results <- pageSections{page: p, sections: []model.Section{section}}
	})
	close(results)
	collectorWG.Wait()
	if !ok {
		return o.terminalCancel(s)
	}

	// Stage: scoring.
	_ = s.advance(constants.StageScoring, 0, "")
	quality := aggregateQuality(pages, pageCount)
	record := confidence.Score(confidence.Inputs{
		Sections:    ordered,
		PageCount:   pageCount,
		FailedPages: failedPages,
		Quality:     quality,
	})
	s.progress(100, record.Grade)

	artifact := &model.Artifact{
		Verdict:    verdict,
		Sections:   ordered,
		Confidence: record,
		Quality:    quality,
		SourceName: name,
		SourceHash: s.docDigest,
		IngestedAt: time.Now().UTC(),
	}
	artifact.BuildSummary(pageCount)

	// Stage: novel characters, only for the novel kind. Failure is
	// recorded in the character set, never fatal.
	if verdict.Kind == constants.KindNovel {
		_ = s.advance(constants.StageNovelCharacters, 0, "")
		enhancedPages := make([]string, pageCount)
		for p := 1; p <= pageCount; p++ {
			enhancedPages[p-1] = pages[p].enhanced
		}
		pass := novel.New(novel.Config{MinPages: o.deps.Config.MinCharacterPages}, provider, o.logger)
		artifact.Characters = pass.Run(ctx, enhancedPages)
		s.progress(100, "")
		if o.observeCancel(s) {
			return common.Errorf(common.CodeCancelled, "session %s cancelled", s.ID)
		}
	}

	// Stage: persisting.
	_ = s.advance(constants.StagePersisting, 0, "")
	note, err := o.persist(ctx, artifact, opts.Layout)
	if err != nil {
		o.rollbackTentative(s)
		s.fail(constants.StageFailedPersistence, err)
		s.release()
		return err
	}

	o.finalizeTentative(s, artifact)

	s.mu.Lock()
	s.artifact = artifact
	s.mu.Unlock()
	_ = s.advance(constants.StageCompleted, 100, note)
	s.release()
	o.logger.Info("pipeline.completed",
		"session", s.ID, "sections", len(ordered), "grade", record.Grade, "note", note)
	return nil
}

// dedupCheck consults the registry under the per-ISBN lock. A hit rejects
// the session; a miss writes a tentative entry rolled back on any terminal
// failure.
func (o *Orchestrator) dedupCheck(ctx context.Context, s *Session, verdict model.Verdict) error {
	if verdict.ISBN13 == "" || o.deps.Registry == nil {
		return nil
	}
	release, err := o.deps.Registry.Acquire(verdict.ISBN13)
	if err != nil {
		s.fail(constants.StageFailedPersistence, err)
		s.release()
		return err
	}
	defer release()

	entry, err := o.deps.Registry.Lookup(ctx, verdict.ISBN13)
	if err != nil {
		s.fail(constants.StageFailedPersistence, err)
		s.release()
		return err
	}
	if entry != nil {
		note := "file already ingested on " + entry.FirstIngestedAt.Format("2006-01-02")
		_ = s.advance(constants.StageRejectedDuplicate, 100, note)
		s.release()
		return common.Errorf(common.CodeRejectedDuplicate, "%s (session %s)", note, entry.LastSessionID)
	}

	e := registry.Entry{
		ISBN:          verdict.ISBN13,
		Title:         verdict.BookTitle,
		LastSessionID: s.ID,
	}
	if err := o.deps.Registry.PutTentative(ctx, e); err != nil {
		s.fail(constants.StageFailedPersistence, err)
		s.release()
		return err
	}
	s.mu.Lock()
	s.tentative = verdict.ISBN13
	s.mu.Unlock()
	return nil
}

func (o *Orchestrator) finalizeTentative(s *Session, artifact *model.Artifact) {
	s.mu.Lock()
	tentative := s.tentative
	s.tentative = ""
	s.mu.Unlock()
	if tentative == "" || o.deps.Registry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.deps.Registry.Finalize(ctx, tentative, artifact.Summary.Sections, artifact.Summary.Words); err != nil {
		o.logger.Warn("registry.finalize_failed", "isbn", tentative, "error", err)
	}
}

// pageWorkerCount bounds per-stage parallelism: min(max, pages), forced to
// at most 4 for documents past the large-doc threshold.
func (o *Orchestrator) pageWorkerCount(pages int) int {
	w := o.deps.Config.MaxPageWorkers
	if pages < w {
		w = pages
	}
	if pages > o.deps.Config.LargeDocPages && w > 4 {
		w = 4
	}
	if w < 1 {
		w = 1
	}
	return w
}

// runPool feeds pages 1..n through a bounded worker pool. The job queue is
// bounded to twice the worker count, which backpressures the producer on
// large inputs. Returns false when cancellation was observed.
func (o *Orchestrator) runPool(s *Session, n int, fn func(page int)) bool {
	workers := o.pageWorkerCount(n)
	jobs := make(chan int, 2*workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if s.isCancelled() {
					continue
				}
				fn(p)
			}
		}()
	}
	interrupted := false
	for p := 1; p <= n; p++ {
		if s.isCancelled() {
			interrupted = true
			break
		}
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	return !interrupted && !s.isCancelled()
}

// observeCancel transitions a cancel-marked session to the terminal state.
func (o *Orchestrator) observeCancel(s *Session) bool {
	if !s.isCancelled() {
		return false
	}
	_ = o.terminalCancel(s)
	return true
}

func (o *Orchestrator) terminalCancel(s *Session) error {
	o.rollbackTentative(s)
	_ = s.advance(constants.StageCancelled, 100, "cancelled")
	s.release()
	return common.Errorf(common.CodeCancelled, "session %s cancelled", s.ID)
}

func categorizeRequest(text string, verdict model.Verdict, allowed []string) ai.CategorizeRequest {
	return ai.CategorizeRequest{
		Text:    text,
		Game:    verdict.Game,
		Edition: verdict.Edition,
		Allowed: allowed,
	}
}

func categorizeOptions() ai.Options {
	return ai.DefaultOptions(ai.OpCategorize)
}

func aggregateQuality(pages []pageData, pageCount int) model.QualityMetrics {
	q := model.QualityMetrics{Corrections: make(map[string]int)}
	scored := 0
	for p := 1; p <= pageCount; p++ {
		pd := pages[p]
		if pd.failed {
			q.PagesFailed++
			continue
		}
		if pd.enhFailed {
			q.PagesFailed++
		}
		scored++
		q.BeforeScore += pd.before
		q.AfterScore += pd.after
		for kind, n := range pd.corrections {
			q.Corrections[kind] += n
		}
	}
	if scored > 0 {
		q.BeforeScore /= float64(scored)
		q.AfterScore /= float64(scored)
	}
	q.Grade = enhance.Grade(q.AfterScore)
	return q
}
