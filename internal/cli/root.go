// Package cli provides the command-line interface for podrag.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/skipai/podrag/internal/catalog"
	"github.com/skipai/podrag/internal/chunker"
	"github.com/skipai/podrag/internal/config"
	"github.com/skipai/podrag/internal/llm"
	"github.com/skipai/podrag/internal/service"
	"github.com/skipai/podrag/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger, and store
	cfg        config.Config
	logCleanup func() error
	st         store.Store
	surrealSt  *store.Surreal
	cat        *catalog.Catalog

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "podrag",
	Short: "Podcast transcript RAG pipeline",
	Long: `Podrag indexes podcast transcripts into a vector store and answers
questions about them with retrieval-augmented generation.

Transcripts are chunked into overlapping word windows, embedded, and
stored alongside episode metadata. Questions are answered from the
nearest chunks with episode sources attached.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip store connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		var logger *slog.Logger
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		// Commands pointed at a running server don't need a store.
		if f := cmd.Flags().Lookup("server"); f != nil && f.Value.String() != "" {
			return nil
		}

		ctx := context.Background()

		switch cfg.StoreBackend {
		case config.StoreMemory:
			st = store.NewMemory()
		default:
			surrealSt, err = store.NewSurreal(ctx, store.SurrealConfig{
				URL:       cfg.SurrealDBURL,
				Namespace: cfg.SurrealDBNamespace,
				Database:  cfg.SurrealDBDatabase,
				Username:  cfg.SurrealDBUser,
				Password:  cfg.SurrealDBPass,
				AuthLevel: cfg.SurrealDBAuthLevel,
			}, logger)
			if err != nil {
				return fmt.Errorf("connect to store: %w", err)
			}
			if err := surrealSt.InitSchema(ctx, cfg.EmbedDimension); err != nil {
				return fmt.Errorf("initialize schema: %w", err)
			}
			st = surrealSt
		}

		cat = catalog.New(st, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if surrealSt != nil {
			if err := surrealSt.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// getEmbedder lazily initializes the embedding client.
func getEmbedder() (*llm.Embedder, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}
	return embedder, nil
}

// getModel lazily initializes the completion model.
func getModel(ctx context.Context) (*llm.Model, error) {
	if model == nil {
		var err error
		model, err = llm.NewModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}
	return model, nil
}

// getIngestService builds the ingest service with its embedder.
func getIngestService() (*service.IngestService, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	chunkCfg := chunker.Config{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	if err := chunkCfg.Validate(); err != nil {
		return nil, err
	}
	return service.NewIngestService(st, cat, emb, chunkCfg, nil), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statsCmd)
}
