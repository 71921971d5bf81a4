package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/registry"
)

func rulebookPages() []string {
	pages := []string{
		"Advanced Dungeons & Dragons\nPLAYER'S HANDBOOK\nGary Gygax",
		"ISBN 0-306-40615-2\nFirst printing.",
	}
	for i := 0; i < 10; i++ {
		pages = append(pages,
			fmt.Sprintf("COMBAT\n\nThe attack roll is compared to armor class on page %d. Roll weapon damage on a hit.", i+3))
	}
	return pages
}

type env struct {
	orch    *Orchestrator
	vectors *fakeVectors
	docs    *fakeDocs
	reg     *registry.Registry
}

func setupEnv(t *testing.T, pages []string) *env {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"), nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	cat := catalog.New()
	vectors := newFakeVectors()
	docs := newFakeDocs()
	orch := NewOrchestrator(Deps{
		Config: common.PipelineConfig{
			MaxPageWorkers:    4,
			LargeDocPages:     400,
			UploadMaxBytes:    1 << 20,
			IdentifyPages:     15,
			IdentifyMaxChars:  5000,
			MinCharacterPages: 3,
		},
		Catalog:   cat,
		Opener:    &fakeOpener{pages: pages},
		Providers: ai.NewFactory(common.AIConfig{CacheSize: 64}, cat, nil),
		Registry:  reg,
		Vectors:   vectors,
		Documents: docs,
	})
	return &env{orch: orch, vectors: vectors, docs: docs, reg: reg}
}

func runSession(t *testing.T, e *env, layout constants.Layout) (string, error) {
	t.Helper()
	id, err := e.orch.Upload([]byte("%PDF-fake"), "phb.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := e.orch.Analyze(context.Background(), id, AnalyzeOptions{
		Provider: constants.ProviderMock,
		Kind:     constants.KindSourceMaterial,
	}); err != nil {
		return id, err
	}
	return id, e.orch.Extract(context.Background(), id, ExtractOptions{
		Provider: constants.ProviderMock,
		Enhance:  constants.EnhanceNormal,
		Layout:   layout,
	})
}

func TestPipelineCompletes(t *testing.T) {
	e := setupEnv(t, rulebookPages())

	id, err := runSession(t, e, constants.LayoutSeparate)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	snap, err := e.orch.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if snap.Stage != constants.StageCompleted {
		t.Fatalf("stage = %s, want completed (%s)", snap.Stage, snap.Error)
	}

	artifact, err := e.orch.Artifact(id)
	if err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	if artifact.Verdict.Derivation != constants.DerivationExplicitTitle {
		t.Errorf("derivation = %s", artifact.Verdict.Derivation)
	}
	if artifact.Verdict.Confidence < 0.95 {
		t.Errorf("confidence = %v", artifact.Verdict.Confidence)
	}
	if len(artifact.Sections) != len(rulebookPages()) {
		t.Errorf("sections = %d, want %d", len(artifact.Sections), len(rulebookPages()))
	}
	for i := 1; i < len(artifact.Sections); i++ {
		prev, curr := artifact.Sections[i-1], artifact.Sections[i]
		if curr.Page < prev.Page || (curr.Page == prev.Page && curr.Ordinal <= prev.Ordinal) {
			t.Fatalf("sections out of order at %d: %+v then %+v", i, prev, curr)
		}
	}

	// Vector store received every section under the short collection name.
	records := e.vectors.records("dnd_1st_phb")
	if len(records) != len(artifact.Sections) {
		t.Errorf("vector records = %d, want %d", len(records), len(artifact.Sections))
	}
	if len(records) > 0 {
		if records[0].ID != "dnd_1st_phb_page1_0" {
			t.Errorf("record id = %q", records[0].ID)
		}
		if records[0].Metadata["game"] != "dnd" {
			t.Errorf("record metadata = %v", records[0].Metadata)
		}
	}

	// Registry finalized the work.
	entry, err := e.reg.Lookup(context.Background(), "9780306406157")
	if err != nil || entry == nil {
		t.Fatalf("registry entry missing: %v %v", entry, err)
	}
	if entry.Status != registry.StatusCompleted {
		t.Errorf("registry status = %s", entry.Status)
	}
	if entry.Sections != len(artifact.Sections) {
		t.Errorf("registry sections = %d", entry.Sections)
	}
}

func TestPipelineSingleLayoutInsertsWhole(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	_, err := runSession(t, e, constants.LayoutSingleWithFolder)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(e.docs.wholeDocs["rpger"]); n != 1 {
		t.Fatalf("whole docs in rpger = %d, want 1", n)
	}
}

func TestPipelineRejectsDuplicate(t *testing.T) {
	e := setupEnv(t, rulebookPages())

	if _, err := runSession(t, e, constants.LayoutSeparate); err != nil {
		t.Fatalf("first run: %v", err)
	}
	id, err := runSession(t, e, constants.LayoutSeparate)
	if !common.HasCode(err, common.CodeRejectedDuplicate) {
		t.Fatalf("second run err = %v, want rejected_duplicate", err)
	}
	snap, _ := e.orch.Status(id)
	if snap.Stage != constants.StageRejectedDuplicate {
		t.Errorf("stage = %s", snap.Stage)
	}
	if snap.Note == "" || !containsDate(snap.Note) {
		t.Errorf("note = %q, want prior ingestion date", snap.Note)
	}
}

func containsDate(s string) bool {
	for i := 0; i+10 <= len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' && i+10 <= len(s) && s[i+4] == '-' && s[i+7] == '-' {
			return true
		}
	}
	return false
}

func TestPipelineConcurrentDuplicatesOneWinner(t *testing.T) {
	e := setupEnv(t, rulebookPages())

	const n = 4
	var wg sync.WaitGroup
	stages := make([]constants.Stage, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			id, _ := runSession(t, e, constants.LayoutSeparate)
			snap, err := e.orch.Status(id)
			if err != nil {
				t.Errorf("Status: %v", err)
				return
			}
			stages[slot] = snap.Stage
		}(i)
	}
	wg.Wait()

	completed, rejected := 0, 0
	for _, stage := range stages {
		switch stage {
		case constants.StageCompleted:
			completed++
		case constants.StageRejectedDuplicate:
			rejected++
		default:
			t.Errorf("unexpected terminal stage %s", stage)
		}
	}
	if completed != 1 {
		t.Fatalf("completed = %d, want exactly 1 (rejected %d)", completed, rejected)
	}
	if rejected != n-1 {
		t.Fatalf("rejected = %d, want %d", rejected, n-1)
	}
}

func TestPipelinePartialPersistence(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	e.vectors.fail = true

	id, err := runSession(t, e, constants.LayoutSingleWithFolder)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	snap, _ := e.orch.Status(id)
	if snap.Stage != constants.StageCompleted {
		t.Fatalf("stage = %s, want completed", snap.Stage)
	}
	if snap.Note == "" || snap.Note[:len("partial_persistence")] != "partial_persistence" {
		t.Errorf("note = %q, want partial_persistence", snap.Note)
	}
	if len(e.docs.wholeDocs["rpger"]) != 1 {
		t.Error("document store missing artifact")
	}

	health := e.orch.CheckHealth(context.Background())
	if health.VectorStore != "down" {
		t.Errorf("vector health = %s, want down", health.VectorStore)
	}
	if health.DocumentStore != "ok" {
		t.Errorf("document health = %s", health.DocumentStore)
	}
}

func TestPipelineBothStoresFailing(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	e.vectors.fail = true
	e.docs.fail = true

	id, err := runSession(t, e, constants.LayoutSeparate)
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	snap, _ := e.orch.Status(id)
	if snap.Stage != constants.StageFailedPersistence {
		t.Fatalf("stage = %s", snap.Stage)
	}

	// The tentative registry entry was rolled back; a rerun may proceed.
	entry, _ := e.reg.Lookup(context.Background(), "9780306406157")
	if entry != nil {
		t.Fatalf("tentative entry survived failure: %+v", entry)
	}
}

func TestCancelIdleSession(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	id, err := e.orch.Upload([]byte("%PDF-fake"), "phb.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := e.orch.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	snap, _ := e.orch.Status(id)
	if snap.Stage != constants.StageCancelled {
		t.Fatalf("stage = %s, want cancelled", snap.Stage)
	}
	// Idempotent.
	if err := e.orch.Cancel(id); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
}

func TestProgressEventsMonotone(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	id, err := e.orch.Upload([]byte("%PDF-fake"), "phb.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	ch, cancel, err := e.orch.Subscribe(id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if _, err := e.orch.Analyze(context.Background(), id, AnalyzeOptions{Provider: constants.ProviderMock, Kind: constants.KindSourceMaterial}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := e.orch.Extract(context.Background(), id, ExtractOptions{Provider: constants.ProviderMock}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	lastIdx := -1
	percentByStage := make(map[constants.Stage]int)
	sawTerminal := false
	for ev := range ch {
		if idx := ev.Stage.Index(); idx >= 0 {
			if idx < lastIdx {
				t.Fatalf("stage regression: %s after index %d", ev.Stage, lastIdx)
			}
			lastIdx = idx
		}
		if prev, ok := percentByStage[ev.Stage]; ok && ev.Percent < prev {
			t.Fatalf("percent regression in %s: %d after %d", ev.Stage, ev.Percent, prev)
		}
		percentByStage[ev.Stage] = ev.Percent
		if ev.Stage.Terminal() {
			sawTerminal = true
		}
	}
	if !sawTerminal {
		t.Fatal("stream ended without a terminal event")
	}
}

func TestNovelRunAttachesCharacters(t *testing.T) {
	pages := []string{
		"Dragons of a Vanished Moon\nA Novel",
		"ISBN 0-306-40615-2",
	}
	for i := 0; i < 6; i++ {
		pages = append(pages,
			fmt.Sprintf("That evening, Alara said \"we ride at dawn\" while Brom sharpened his blade near page %d.", i+3))
	}
	e := setupEnv(t, pages)

	id, err := e.orch.Upload([]byte("%PDF-novel"), "novel.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := e.orch.Analyze(context.Background(), id, AnalyzeOptions{
		Provider: constants.ProviderMock,
		Kind:     constants.KindNovel,
	}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := e.orch.Extract(context.Background(), id, ExtractOptions{Provider: constants.ProviderMock}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	artifact, err := e.orch.Artifact(id)
	if err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	if artifact.Verdict.Kind != constants.KindNovel {
		t.Fatalf("kind = %s", artifact.Verdict.Kind)
	}
	if artifact.Characters == nil {
		t.Fatal("no character set attached")
	}
	if artifact.Characters.PassFailed {
		t.Fatalf("character pass failed: %s", artifact.Characters.FailureNote)
	}
	if len(artifact.Characters.Characters) == 0 {
		t.Fatal("no characters discovered")
	}
	for _, c := range artifact.Characters.Characters {
		if c.Name == "" {
			t.Error("character with empty surface form")
		}
	}
}

func TestUploadTooLarge(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	blob := make([]byte, 2<<20)
	_, err := e.orch.Upload(blob, "big.pdf")
	if !common.HasCode(err, common.CodeUploadTooLarge) {
		t.Fatalf("err = %v, want upload_too_large", err)
	}
}

func TestSweepSkipsRunningSessions(t *testing.T) {
	e := setupEnv(t, rulebookPages())
	id, _ := e.orch.Upload([]byte("%PDF"), "a.pdf")
	s, err := e.orch.Sessions().get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s.setRunning(true)
	if removed := e.orch.Sessions().Sweep(0); removed != 0 {
		t.Fatalf("sweep removed a running session")
	}
	s.setRunning(false)
	if removed := e.orch.Sessions().Sweep(0); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}
}
