// Command extractord serves the session API over HTTP with an SSE progress
// stream.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rpger/content-extractor/internal/ai"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/docstore"
	"github.com/rpger/content-extractor/internal/pdf"
	"github.com/rpger/content-extractor/internal/pipeline"
	"github.com/rpger/content-extractor/internal/registry"
	"github.com/rpger/content-extractor/internal/server"
	"github.com/rpger/content-extractor/internal/vectorstore"
)

func main() {
	// Logger
	zlog, _ := zap.NewProduction()
	defer zlog.Sync()
	log := zlog.Sugar()
	slogger := slog.Default()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.New()

	reg, err := registry.Open(cfg.Stores.RegistryDBPath, slogger)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}
	defer reg.Close()

	vectors, err := vectorstore.New(vectorstore.Config{
		Addr:          cfg.Stores.VectorStoreURL,
		MaxValueBytes: cfg.Stores.MaxValueBytes,
	}, vectorstore.NewHashingEmbedder(0), slogger)
	if err != nil {
		log.Warnf("vector store unavailable: %v", err)
	}

	docs, err := docstore.New(ctx, docstore.Config{
		URI:      cfg.Stores.DocumentStoreURL,
		Database: cfg.Stores.DocumentDatabase,
		Timeout:  cfg.Stores.StoreTimeout,
	}, slogger)
	if err != nil {
		log.Warnf("document store unavailable: %v", err)
	}

	deps := pipeline.Deps{
		Config:  cfg.Pipeline,
		Stores:  cfg.Stores,
		Catalog: cat,
		Opener: pdf.NewFacade(&pdf.OCRConfig{
			Pdftoppm:      cfg.OCR.Pdftoppm,
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
			DPI:           cfg.OCR.DPI,
		}, slogger),
		Providers: ai.NewFactory(cfg.AI, cat, slogger),
		Registry:  reg,
		Logger:    slogger,
	}
	if vectors != nil {
		deps.Vectors = vectors
		defer vectors.Close()
	}
	if docs != nil {
		deps.Documents = docs
		defer docs.Close(context.Background())
	}

	orch := pipeline.NewOrchestrator(deps)

	// Session TTL sweeper; running sessions are never removed.
	orch.Sessions().StartSweeper(ctx.Done(), cfg.Pipeline.SessionTTL, time.Minute)

	router := server.NewRouter(orch, cfg, zlog)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Infof("http serving on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	log.Info("stopped.")
}
