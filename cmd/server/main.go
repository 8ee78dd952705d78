package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcstorage "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/openrecords/docproc/internal/blob"
	"github.com/openrecords/docproc/internal/config"
	"github.com/openrecords/docproc/internal/extract"
	"github.com/openrecords/docproc/internal/httpapi"
	"github.com/openrecords/docproc/internal/job"
	"github.com/openrecords/docproc/internal/ocr"
	"github.com/openrecords/docproc/internal/store"
	"github.com/openrecords/docproc/internal/structify"
)

func main() {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	jobStore, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	chain := extract.DefaultChain(
		logger,
		ocr.NewPdftoppm(cfg.OCR.PdftoppmBinary),
		ocr.NewTesseract(cfg.OCR.TesseractBinary),
		extract.OCRConfig{
			Language: cfg.OCR.Language,
			MaxPages: cfg.OCR.MaxPages,
			DPI:      cfg.OCR.DPI,
		},
	)

	var gen structify.Generator
	if cfg.MockAI() {
		logger.Warn("no Gemini API key configured, AI jobs will use the local extractor")
	} else {
		gen = structify.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
	}
	adapter := structify.NewAdapter(gen, logger)

	manager := job.NewManager(jobStore, blobs, chain, adapter, logger, job.Options{
		Workers:   cfg.Workers.Count,
		QueueSize: cfg.Workers.QueueSize,
	})
	defer manager.Close()

	api := httpapi.Server{Jobs: manager, Logger: logger}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           h2c.NewHandler(c.Handler(api.Router()), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"port", cfg.HTTP.Port, "store", cfg.Store.Backend, "blob", cfg.Blob.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreSQLite:
		s, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.Store.FirestoreProject)
		if err != nil {
			return nil, nil, fmt.Errorf("create firestore client: %w", err)
		}
		return store.NewFirestoreStore(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case config.BlobLocal:
		if err := os.MkdirAll(cfg.Blob.LocalDir, 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir: %w", err)
		}
		return blob.LocalFS{Root: cfg.Blob.LocalDir}, nil
	case config.BlobGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return blob.NewGCS(client, cfg.Blob.GCSBucket), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}
