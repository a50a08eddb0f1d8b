// Package main provides the HTTP question answering server for podrag.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skipai/podrag/internal/catalog"
	"github.com/skipai/podrag/internal/chunker"
	"github.com/skipai/podrag/internal/config"
	"github.com/skipai/podrag/internal/llm"
	"github.com/skipai/podrag/internal/metrics"
	"github.com/skipai/podrag/internal/server"
	"github.com/skipai/podrag/internal/service"
	"github.com/skipai/podrag/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = logCleanup() }()
	slog.SetDefault(logger)

	slog.Info("starting podrag-server", "port", cfg.ServerPort, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	var surrealSt *store.Surreal
	if cfg.StoreBackend == config.StoreMemory {
		st = store.NewMemory()
	} else {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		surrealSt, err = store.NewSurreal(connectCtx, store.SurrealConfig{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		cancel()
		if err != nil {
			slog.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := surrealSt.Close(context.Background()); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}()
		if err := surrealSt.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			slog.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		st = surrealSt
	}

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		slog.Error("failed to create model", "error", err)
		os.Exit(1)
	}

	cat := catalog.New(st, logger)

	collector := metrics.NewCollector()

	if cfg.IngestOnStartup {
		if err := ingestIfEmpty(ctx, cfg, st, cat, embedder, collector, logger); err != nil {
			slog.Error("startup ingestion failed", "error", err)
			os.Exit(1)
		}
	}

	answer := service.NewAnswerService(st, embedder, model, cfg.TopK, cfg.AnswerTimeout, logger)
	answer.SetMetrics(collector)

	srv := server.New(cfg.ServerPort, answer, cat, st, model, cfg.CORSOrigins, logger)
	srv.SetMetrics(collector)

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("podrag-server stopped")
}

// ingestIfEmpty indexes the transcript corpus when the store holds no
// chunks yet. An already populated store is left as-is.
func ingestIfEmpty(ctx context.Context, cfg config.Config, st store.Store, cat *catalog.Catalog, embedder *llm.Embedder, collector *metrics.Collector, logger *slog.Logger) error {
	count, err := st.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("store already populated, skipping startup ingestion", "chunks", count)
		return nil
	}

	chunkCfg := chunker.Config{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	if err := chunkCfg.Validate(); err != nil {
		return err
	}

	logger.Info("store empty, ingesting transcripts", "dir", cfg.TranscriptsDir)
	svc := service.NewIngestService(st, cat, embedder, chunkCfg, logger)
	svc.SetMetrics(collector)
	result, err := svc.ProcessAllEpisodes(ctx, cfg.TranscriptsDir, cfg.MetadataPath, service.BatchOptions{})
	if err != nil {
		return err
	}
	logger.Info("startup ingestion complete",
		"processed", result.Processed, "failed", result.Failed, "chunks", result.TotalChunksInStore)
	return nil
}
