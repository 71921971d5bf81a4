package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/docstore"
	"github.com/rpger/content-extractor/internal/identify"
	"github.com/rpger/content-extractor/internal/model"
	"github.com/rpger/content-extractor/internal/pdf"
	"github.com/rpger/content-extractor/internal/registry"
	"github.com/rpger/content-extractor/internal/vectorstore"
)

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Config    common.PipelineConfig
	Stores    common.StoreConfig
	Catalog   *catalog.Catalog
	Opener    pdf.Opener
	Providers *ai.Factory
	Registry  *registry.Registry
	Vectors   vectorstore.Store
	Documents docstore.Store
	Logger    *slog.Logger
}

// Orchestrator drives extraction sessions through the state machine.
// Sessions are independent; the only cross-session serialization is the
// registry's per-ISBN locking.
type Orchestrator struct {
	deps     Deps
	sessions *Manager
	logger   *slog.Logger
}

// NewOrchestrator builds the orchestrator and its session registry.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.New()
	}
	if deps.Config.MaxPageWorkers <= 0 {
		deps.Config.MaxPageWorkers = 8
	}
	if deps.Config.LargeDocPages <= 0 {
		deps.Config.LargeDocPages = 400
	}
	if deps.Config.UploadMaxBytes <= 0 {
		deps.Config.UploadMaxBytes = 200 << 20
	}
	return &Orchestrator{
		deps:     deps,
		sessions: NewManager(deps.Logger),
		logger:   deps.Logger,
	}
}

// Sessions exposes the session registry (for the sweeper and status
// listings).
func (o *Orchestrator) Sessions() *Manager { return o.sessions }

// Vectors exposes the vector store adapter for browse operations.
func (o *Orchestrator) Vectors() vectorstore.Store { return o.deps.Vectors }

// Documents exposes the document store adapter for browse operations.
func (o *Orchestrator) Documents() docstore.Store { return o.deps.Documents }

// Upload creates a session owning the document bytes.
func (o *Orchestrator) Upload(blob []byte, originName string) (string, error) {
	if int64(len(blob)) > o.deps.Config.UploadMaxBytes {
		return "", common.Errorf(common.CodeUploadTooLarge, "%s is %d bytes (limit %d)",
			originName, len(blob), o.deps.Config.UploadMaxBytes)
	}
	if len(blob) == 0 {
		return "", common.Errorf(common.CodePDFEmpty, "%s: empty upload", originName)
	}
	s := newSession(originName, blob)
	o.sessions.add(s)
	_ = s.advance(constants.StageUploaded, 100, originName)
	o.logger.Info("session.uploaded", "session", s.ID, "name", originName, "bytes", len(blob))
	return s.ID, nil
}

// AnalyzeOptions selects the provider and classification inputs.
type AnalyzeOptions struct {
	Provider constants.Provider
	Kind     constants.ContentKind
	Override identify.Override
}

// Analyze drives a session to identified and returns the verdict.
func (o *Orchestrator) Analyze(ctx context.Context, id string, opts AnalyzeOptions) (model.Verdict, error) {
	s, err := o.sessions.get(id)
	if err != nil {
		return model.Verdict{}, err
	}
	if stage := s.currentStage(); stage != constants.StageUploaded {
		return model.Verdict{}, common.Errorf(common.CodeBadSession, "analyze in stage %s", stage)
	}
	if opts.Kind == "" {
		opts.Kind = constants.KindSourceMaterial
	}
	s.setRunning(true)
	defer s.setRunning(false)

	if err := s.advance(constants.StageIdentifying, 0, string(opts.Provider)); err != nil {
		return model.Verdict{}, err
	}

	s.mu.Lock()
	blob, name := s.docBytes, s.docName
	s.mu.Unlock()

	doc, err := o.deps.Opener.Open(ctx, blob, name)
	if err != nil {
		s.fail(constants.StageFailedIdentification, err)
		return model.Verdict{}, err
	}
	defer doc.Close()

	identifier := identify.New(identify.Config{
		Pages:    o.deps.Config.IdentifyPages,
		MaxChars: o.deps.Config.IdentifyMaxChars,
	}, o.deps.Catalog, o.deps.Providers.Provider(opts.Provider), o.deps.Providers.Mock(), o.logger)

	verdict, err := identifier.Identify(ctx, doc, opts.Kind, opts.Override)
	if err != nil {
		s.fail(constants.StageFailedIdentification, err)
		return model.Verdict{}, err
	}

	s.mu.Lock()
	s.verdict = &verdict
	s.mu.Unlock()
	_ = s.advance(constants.StageIdentified, 100, verdict.Game+"/"+verdict.BookCode)
	return verdict, nil
}

// ExtractOptions control the extraction run.
type ExtractOptions struct {
	Provider constants.Provider
	Enhance  constants.EnhanceMode
	Layout   constants.Layout
}

// Extract drives an identified session to completion (or a terminal
// error). It is synchronous; HTTP callers run it in a goroutine and follow
// the progress stream.
func (o *Orchestrator) Extract(ctx context.Context, id string, opts ExtractOptions) error {
	s, err := o.sessions.get(id)
	if err != nil {
		return err
	}
	if stage := s.currentStage(); stage != constants.StageIdentified {
		return common.Errorf(common.CodeBadSession, "extract in stage %s", stage)
	}
	if opts.Enhance == "" {
		opts.Enhance = constants.EnhanceNormal
	}
	if opts.Layout == "" {
		opts.Layout = constants.LayoutSeparate
	}
	s.setRunning(true)
	defer s.setRunning(false)

	return o.run(ctx, s, opts)
}

// Cancel marks a session for stop. Idle sessions transition immediately;
// running ones observe the flag at the next suspension point. Cancel is
// idempotent and safe at any time.
func (o *Orchestrator) Cancel(id string) error {
	s, err := o.sessions.get(id)
	if err != nil {
		return err
	}
	s.markCancelled()
	s.mu.Lock()
	idle := !s.running && !s.stage.Terminal()
	s.mu.Unlock()
	if idle {
		o.rollbackTentative(s)
		_ = s.advance(constants.StageCancelled, 100, "cancelled")
		s.release()
	}
	o.logger.Info("session.cancel", "session", id)
	return nil
}

// Status returns the session snapshot.
func (o *Orchestrator) Status(id string) (Snapshot, error) {
	s, err := o.sessions.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// Artifact returns the extraction artifact of a completed session.
func (o *Orchestrator) Artifact(id string) (*model.Artifact, error) {
	s, err := o.sessions.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifact == nil {
		return nil, common.Errorf(common.CodeBadSession, "session %s has no artifact (stage %s)", id, s.stage)
	}
	return s.artifact, nil
}

// Subscribe returns the session's progress stream. The latest event per
// stage is replayed, so re-subscribing resumes cleanly; the stream ends at
// any terminal state.
func (o *Orchestrator) Subscribe(id string) (<-chan ProgressEvent, func(), error) {
	s, err := o.sessions.get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.events.subscribe()
	return ch, cancel, nil
}

// Health reports backing store and provider availability.
type Health struct {
	VectorStore   string            `json:"vector_store"`
	DocumentStore string            `json:"document_store"`
	Registry      string            `json:"registry"`
	Providers     map[string]string `json:"providers"`
}

// CheckHealth pings both stores and the registry.
func (o *Orchestrator) CheckHealth(ctx context.Context) Health {
	h := Health{
		VectorStore:   "down",
		DocumentStore: "down",
		Registry:      "down",
		Providers:     o.deps.Providers.Health(),
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if o.deps.Vectors != nil && o.deps.Vectors.Ping(pingCtx) == nil {
		h.VectorStore = "ok"
	}
	if o.deps.Documents != nil && o.deps.Documents.Ping(pingCtx) == nil {
		h.DocumentStore = "ok"
	}
	if o.deps.Registry != nil && o.deps.Registry.Ping(pingCtx) == nil {
		h.Registry = "ok"
	}
	return h
}

func (o *Orchestrator) rollbackTentative(s *Session) {
	s.mu.Lock()
	tentative := s.tentative
	s.tentative = ""
	s.mu.Unlock()
	if tentative == "" || o.deps.Registry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.deps.Registry.DropTentative(ctx, tentative); err != nil {
		o.logger.Warn("registry.rollback_failed", "isbn", tentative, "error", err)
	}
}
