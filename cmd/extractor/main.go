// Command extractor is the CLI entry point: single-file extraction, batch
// directory walks and a health/status report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/docstore"
	"github.com/rpger/content-extractor/internal/export"
	"github.com/rpger/content-extractor/internal/identify"
	"github.com/rpger/content-extractor/internal/pdf"
	"github.com/rpger/content-extractor/internal/pipeline"
	"github.com/rpger/content-extractor/internal/registry"
	"github.com/rpger/content-extractor/internal/vectorstore"
)

type flags struct {
	provider string
	game     string
	edition  string
	book     string
	kind     string
	layout   string
	enhance  string
	out      string
}

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	var f flags
	exitCode := constants.ExitOK

	root := &cobra.Command{
		Use:           "extractor",
		Short:         "Extract, classify and ingest tabletop RPG PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.provider, "provider", "mock", "AI provider: "+strings.Join(constants.ProviderNames(), "|"))
	root.PersistentFlags().StringVar(&f.game, "game", "", "manual override: game system id")
	root.PersistentFlags().StringVar(&f.edition, "edition", "", "manual override: edition")
	root.PersistentFlags().StringVar(&f.book, "book", "", "manual override: book code")
	root.PersistentFlags().StringVar(&f.kind, "kind", "", "content kind: source_material|novel")
	root.PersistentFlags().StringVar(&f.layout, "layout", "separate", "collection layout: separate|single")
	root.PersistentFlags().StringVar(&f.enhance, "enhance", "normal", "text enhancement: off|normal|aggressive")
	root.PersistentFlags().StringVar(&f.out, "out", "", "directory for JSON/XLSX artifact export")

	extractCmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract a single PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = extractOne(cmd.Context(), logger, f, args[0])
			return nil
		},
	}
	batchCmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Extract every PDF under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = extractBatch(cmd.Context(), logger, f, args[0])
			return nil
		},
	}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print store health and recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = printStatus(cmd.Context(), logger)
			return nil
		},
	}
	root.AddCommand(extractCmd, batchCmd, statusCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}
	return exitCode
}

// buildOrchestrator wires the full dependency set. Store connections are
// lazy; unreachable stores surface during persistence.
func buildOrchestrator(ctx context.Context, logger *slog.Logger) (*pipeline.Orchestrator, *registry.Registry, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	cat := catalog.New()

	reg, err := registry.Open(cfg.Stores.RegistryDBPath, logger)
	if err != nil {
		return nil, nil, err
	}

	vectors, err := vectorstore.New(vectorstore.Config{
		Addr:          cfg.Stores.VectorStoreURL,
		MaxValueBytes: cfg.Stores.MaxValueBytes,
	}, vectorstore.NewHashingEmbedder(0), logger)
	if err != nil {
		logger.Warn("vector store unavailable", "error", err)
		vectors = nil
	}

	docs, err := docstore.New(ctx, docstore.Config{
		URI:      cfg.Stores.DocumentStoreURL,
		Database: cfg.Stores.DocumentDatabase,
		Timeout:  cfg.Stores.StoreTimeout,
	}, logger)
	if err != nil {
		logger.Warn("document store unavailable", "error", err)
		docs = nil
	}

	deps := pipeline.Deps{
		Config:    cfg.Pipeline,
		Stores:    cfg.Stores,
		Catalog:   cat,
		Opener: pdf.NewFacade(&pdf.OCRConfig{
			Pdftoppm:      cfg.OCR.Pdftoppm,
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
			DPI:           cfg.OCR.DPI,
		}, logger),
		Providers: ai.NewFactory(cfg.AI, cat, logger),
		Registry:  reg,
		Logger:    logger,
	}
	if vectors != nil {
		deps.Vectors = vectors
	}
	if docs != nil {
		deps.Documents = docs
	}
	return pipeline.NewOrchestrator(deps), reg, nil
}

func extractOne(ctx context.Context, logger *slog.Logger, f flags, path string) int {
	orch, reg, err := buildOrchestrator(ctx, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}
	defer reg.Close()
	return runFile(ctx, orch, logger, f, path, true)
}

func runFile(ctx context.Context, orch *pipeline.Orchestrator, logger *slog.Logger, f flags, path string, verbose bool) int {
	blob, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}
	provider, ok := constants.ParseProvider(f.provider)
	if !ok && f.provider != "" {
		fmt.Fprintf(os.Stderr, "error: unknown provider %q\n", f.provider)
		return constants.ExitUsage
	}
	kind, _ := constants.ParseContentKind(f.kind)
	layout, _ := constants.ParseLayout(f.layout)
	mode, _ := constants.ParseEnhanceMode(f.enhance)

	id, err := orch.Upload(blob, filepath.Base(path))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}

	// A SIGINT cancels the session; the pipeline observes it at the next
	// suspension point.
	go func() {
		<-ctx.Done()
		_ = orch.Cancel(id)
	}()

	verdict, err := orch.Analyze(ctx, id, pipeline.AnalyzeOptions{
		Provider: provider,
		Kind:     kind,
		Override: identify.Override{Game: f.game, Edition: f.edition, Book: f.book},
	})
	if err != nil {
		return reportTerminal(orch, id, path)
	}
	if verbose {
		fmt.Printf("%s: %s %s %s (%s, confidence %.2f)\n",
			filepath.Base(path), verdict.Game, verdict.Edition, verdict.BookCode,
			verdict.Derivation, verdict.Confidence)
	}

	if err := orch.Extract(ctx, id, pipeline.ExtractOptions{
		Provider: provider,
		Enhance:  mode,
		Layout:   layout,
	}); err != nil {
		return reportTerminal(orch, id, path)
	}

	artifact, err := orch.Artifact(id)
	if err != nil {
		return reportTerminal(orch, id, path)
	}
	if verbose {
		fmt.Printf("%s: %d sections, %d words, grade %s\n",
			filepath.Base(path), artifact.Summary.Sections, artifact.Summary.Words, artifact.Confidence.Grade)
	}

	if f.out != "" {
		paths, err := export.NewService(logger).WriteArtifact(f.out, artifact)
		if err != nil {
			fmt.Fprintln(os.Stderr, "export error:", err)
		} else if verbose {
			fmt.Printf("%s: wrote %s\n", filepath.Base(path), strings.Join(paths, ", "))
		}
	}
	return constants.ExitOK
}

// reportTerminal prints the terminal state and maps it to an exit code.
func reportTerminal(orch *pipeline.Orchestrator, id, path string) int {
	snap, err := orch.Status(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitExtraction
	}
	msg := snap.Note
	if snap.Error != "" {
		msg = snap.Error
	}
	fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(path), snap.Stage, msg)
	return constants.ExitCodeForStage(snap.Stage)
}

func extractBatch(ctx context.Context, logger *slog.Logger, f flags, dir string) int {
	orch, reg, err := buildOrchestrator(ctx, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}
	defer reg.Close()

	var pdfs []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}
	sort.Strings(pdfs)
	if len(pdfs) == 0 {
		fmt.Fprintf(os.Stderr, "no PDF files under %s\n", dir)
		return constants.ExitUsage
	}

	// Exit 0 iff every session completed or was a duplicate rejection.
	failed := 0
	for _, path := range pdfs {
		if ctx.Err() != nil {
			return constants.ExitCancelled
		}
		code := runFile(ctx, orch, logger, f, path, true)
		switch code {
		case constants.ExitOK, constants.ExitDuplicate:
		case constants.ExitCancelled:
			return constants.ExitCancelled
		default:
			failed++
		}
	}
	fmt.Printf("batch: %d files, %d failed\n", len(pdfs), failed)
	if failed > 0 {
		return 1
	}
	return constants.ExitOK
}

func printStatus(ctx context.Context, logger *slog.Logger) int {
	orch, reg, err := buildOrchestrator(ctx, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitUsage
	}
	defer reg.Close()

	health := orch.CheckHealth(ctx)
	fmt.Printf("vector store:   %s\n", health.VectorStore)
	fmt.Printf("document store: %s\n", health.DocumentStore)
	fmt.Printf("registry:       %s\n", health.Registry)
	providers := make([]string, 0, len(health.Providers))
	for name := range health.Providers {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	for _, name := range providers {
		fmt.Printf("provider %-8s %s\n", name+":", health.Providers[name])
	}

	recent, err := reg.Recent(ctx, 10)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return constants.ExitOK
	}
	if len(recent) > 0 {
		fmt.Println("\nrecent ingests:")
		for _, e := range recent {
			fmt.Printf("  %s  %-40s %s  %d sections\n",
				e.FirstIngestedAt.Format("2006-01-02"), e.Title, e.Status, e.Sections)
		}
	}
	return constants.ExitOK
}
